// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package services contains the business logic of the generation client.
// This file defines the GenerationController, which owns the lifecycle of
// one generation run at a time.
//
// Logic Flow:
//  1. `Submit` resets the state to `generating` at 0% and starts the run
//     goroutine, which owns the timeline task and the network task of one
//     run id.
//  2. The timeline task plays the checkpoints of BuildTimeline.
//  3. The network task starts when the timeline shows "Composing video..."
//     and executes the network command once. The remaining checkpoint and
//     the hold after it do not delay the request. As soon as the service
//     answers with a success status the timeline stops and "Finalizing..."
//     is shown at 90%.
//  4. On success the payload is registered in the ResourceStore and the state
//     becomes `success` with the handle. On any failure the state becomes
//     `error` with GenericFailureMessage; the details are only logged.
//
// Every write goes through one mutex and carries the run id. Writes of a
// superseded run, writes after a terminal state and writes after Close are
// dropped. A handle produced by a dropped run is released at once.
// `Wait` and `Close` return only after the run goroutine has exited.
package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// Controller errors.
var (
	ErrRunInProgress    = errors.New("a generation run is already in progress")
	ErrControllerClosed = errors.New("generation controller is closed")
	ErrNoResult         = errors.New("no generated video is available")
)

// Observer receives a snapshot after every applied transition. Observers run
// in registration order while the controller lock is held, so they must not
// call back into the controller.
type Observer func(snapshot model.Snapshot)

// GenerationController tracks one asynchronous generation run.
type GenerationController struct {
	network cor.Command
	store   *ResourceStore
	cadence TimelineCadence

	mu        sync.Mutex
	state     model.GenerationState
	runID     string
	cancel    context.CancelFunc
	done      chan struct{}
	closed    bool
	observers []Observer
	runs      sync.WaitGroup

	tracer        trace.Tracer
	runsStarted   metric.Int64Counter
	runsSucceeded metric.Int64Counter
	runsFailed    metric.Int64Counter
}

// NewGenerationController creates an idle controller.
//
// Inputs:
//   - network: The command that performs the request. It receives the
//     model.GenerationRequest under cor.CtxIn and must leave a
//     *model.VideoPayload under cor.CtxIn when it succeeds.
//   - store: Where successful payloads are kept.
//   - cadence: The pauses of the progress timeline.
//
// Outputs:
//   - *GenerationController: The controller in the idle state.
func NewGenerationController(network cor.Command, store *ResourceStore, cadence TimelineCadence) *GenerationController {
	meter := otel.Meter(cor.MeterName)
	c := &GenerationController{
		network: network,
		store:   store,
		cadence: cadence,
		state:   model.IdleState(),
		tracer:  otel.Tracer("generation-controller"),
	}

	c.runsStarted = newCounter(meter, "generation.runs.started")
	c.runsSucceeded = newCounter(meter, "generation.runs.succeeded")
	c.runsFailed = newCounter(meter, "generation.runs.failed")
	return c
}

// newCounter creates a counter, falling back to a no-op counter on error.
func newCounter(meter metric.Meter, name string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name)
	if err != nil {
		slog.Warn("failed to create counter", "name", name, "error", err)
		return noop.Int64Counter{}
	}
	return counter
}

// AddObserver registers fn. It is called with the current snapshot right
// away and after every later transition.
func (c *GenerationController) AddObserver(fn Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
	fn(c.snapshotLocked())
}

// Submit starts a run for req and returns at once. The caller validates req.
// A finished run's result is released when the next run starts.
//
// Inputs:
//   - ctx: Carries trace context into the run. Its cancellation does not stop
//     the run; Close does.
//   - req: The validated generation request.
//
// Outputs:
//   - error: ErrRunInProgress while a run is generating, ErrControllerClosed
//     after Close.
func (c *GenerationController) Submit(ctx context.Context, req model.GenerationRequest) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}
	if c.state.Status() == model.StatusGenerating {
		c.mu.Unlock()
		return ErrRunInProgress
	}

	c.releaseHandleLocked()
	runID := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	timelineCtx, stopTimeline := context.WithCancel(runCtx)

	done := make(chan struct{})
	c.runID = runID
	c.cancel = cancel
	c.done = done
	c.state = model.StartRun()
	c.notifyLocked()
	c.runs.Add(1)
	c.mu.Unlock()

	c.runsStarted.Add(ctx, 1)
	slog.InfoContext(ctx, "generation run started", "run_id", runID, "style", req.VoiceStyle, "image_style", req.ImageStyle)

	go c.run(runCtx, timelineCtx, stopTimeline, runID, req, done)
	return nil
}

// run drives one run: it plays the timeline and issues the request once the
// composition stage is shown. done is closed after both tasks have exited.
func (c *GenerationController) run(ctx context.Context, timelineCtx context.Context, stopTimeline context.CancelFunc, runID string, req model.GenerationRequest, done chan struct{}) {
	defer c.runs.Done()
	defer close(done)

	composing := make(chan struct{})
	var once sync.Once
	timelineDone := make(chan struct{})
	go func() {
		defer close(timelineDone)
		c.runTimeline(timelineCtx, runID, BuildTimeline(req.Text, c.cadence), func() {
			once.Do(func() { close(composing) })
		})
	}()

	select {
	case <-composing:
	case <-timelineDone:
	case <-ctx.Done():
	}

	select {
	case <-composing:
		if ctx.Err() == nil {
			c.runNetwork(ctx, runID, req, stopTimeline)
		}
	default:
		if c.apply(runID, func(s model.GenerationState) (model.GenerationState, error) {
			return s.Fail(model.GenericFailureMessage)
		}) {
			slog.ErrorContext(ctx, "timeline ended before the request was issued", "run_id", runID)
			c.runsFailed.Add(ctx, 1)
		}
	}

	stopTimeline()
	<-timelineDone
}

// runTimeline plays the synthesized checkpoints until the run moves on.
// onComposition is called after each applied composition checkpoint.
func (c *GenerationController) runTimeline(ctx context.Context, runID string, steps []TimelineStep, onComposition func()) {
	RunTimeline(ctx, steps, func(step TimelineStep) bool {
		applied := c.apply(runID, func(s model.GenerationState) (model.GenerationState, error) {
			return s.Advance(step.Stage, step.Percent)
		})
		if applied && step.Stage == model.StageComposition {
			onComposition()
		}
		return applied
	})
}

// runNetwork executes the network command and applies the terminal state.
func (c *GenerationController) runNetwork(ctx context.Context, runID string, req model.GenerationRequest, stopTimeline context.CancelFunc) {
	defer stopTimeline()

	spanCtx, span := c.tracer.Start(ctx, "generation-run")
	span.SetAttributes(attribute.String("run_id", runID))
	defer span.End()

	chCtx := cor.NewBaseContext()
	chCtx.SetContext(spanCtx)
	defer chCtx.Close()

	chCtx.Add(cor.CtxIn, req)
	chCtx.Add(commands.ResponseHookParam, commands.ResponseHook(func(*http.Response) {
		stopTimeline()
		c.apply(runID, func(s model.GenerationState) (model.GenerationState, error) {
			return s.Advance(model.StageFinalizing, FinalizingPercent)
		})
	}))

	c.network.Execute(chCtx)

	payload, ok := chCtx.Get(cor.CtxIn).(*model.VideoPayload)
	if chCtx.HasErrors() || !ok {
		for name, err := range chCtx.GetErrors() {
			slog.ErrorContext(spanCtx, "generation run failed", "run_id", runID, "command", name, "error", err)
		}
		if !chCtx.HasErrors() {
			slog.ErrorContext(spanCtx, "generation run produced no payload", "run_id", runID)
		}
		span.SetStatus(codes.Error, "generation failed")
		if c.apply(runID, func(s model.GenerationState) (model.GenerationState, error) {
			return s.Fail(model.GenericFailureMessage)
		}) {
			c.runsFailed.Add(spanCtx, 1)
		}
		return
	}

	if c.succeed(runID, payload, DefaultTitle(req.Text)) {
		span.SetStatus(codes.Ok, "generation succeeded")
		c.runsSucceeded.Add(spanCtx, 1)
		slog.InfoContext(spanCtx, "generation run succeeded", "run_id", runID, "size", payload.Size(), "mime_type", payload.MIMEType)
		return
	}
	slog.InfoContext(spanCtx, "discarding result of abandoned run", "run_id", runID)
}

// succeed registers payload and applies the success state. The payload is
// never registered for a run that is no longer current.
func (c *GenerationController) succeed(runID string, payload *model.VideoPayload, title string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isCurrentLocked(runID) {
		return false
	}

	handle := c.store.Register(payload)
	next, err := c.state.Succeed(handle, title)
	if err != nil {
		c.store.Release(handle.ID)
		return false
	}
	c.state = next
	c.finishLocked()
	return true
}

// apply runs transition on the state of runID. It reports whether the state
// changed.
func (c *GenerationController) apply(runID string, transition func(model.GenerationState) (model.GenerationState, error)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isCurrentLocked(runID) {
		return false
	}

	next, err := transition(c.state)
	if err != nil {
		slog.Debug("transition rejected", "run_id", runID, "error", err)
		return false
	}
	c.state = next
	if next.IsTerminal() {
		c.finishLocked()
		return true
	}
	c.notifyLocked()
	return true
}

func (c *GenerationController) isCurrentLocked(runID string) bool {
	return !c.closed && runID == c.runID && c.state.Status() == model.StatusGenerating
}

// finishLocked ends the current run after a terminal transition.
func (c *GenerationController) finishLocked() {
	c.cancel()
	c.notifyLocked()
}

func (c *GenerationController) notifyLocked() {
	snapshot := c.snapshotLocked()
	for _, fn := range c.observers {
		fn(snapshot)
	}
}

func (c *GenerationController) snapshotLocked() model.Snapshot {
	downloadName := ""
	if title, ok := c.state.Title(); ok {
		downloadName = DeriveDownloadName(title)
	}
	return model.NewSnapshot(c.runID, c.state, downloadName)
}

func (c *GenerationController) releaseHandleLocked() {
	if handle, ok := c.state.Handle(); ok {
		c.store.Release(handle.ID)
	}
}

// Snapshot returns the current state.
func (c *GenerationController) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait blocks until the goroutines of the current run have exited, which
// happens after a terminal state or Close, or until ctx ends. It returns the
// snapshot at that point.
func (c *GenerationController) Wait(ctx context.Context) (model.Snapshot, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return c.Snapshot(), nil
	}
	select {
	case <-done:
		return c.Snapshot(), nil
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	}
}

// OpenResult returns a reader over the video of a successful run together
// with its handle and title.
func (c *GenerationController) OpenResult() (io.ReadSeeker, model.ResourceHandle, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	handle, ok := c.state.Handle()
	if !ok {
		return nil, model.ResourceHandle{}, "", ErrNoResult
	}
	title, _ := c.state.Title()
	reader, err := c.store.Open(handle.ID)
	if err != nil {
		return nil, model.ResourceHandle{}, "", err
	}
	return reader, handle, title, nil
}

// Release drops the result of a finished run and returns the controller to
// idle.
func (c *GenerationController) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrControllerClosed
	}
	if c.state.Status() == model.StatusGenerating {
		return ErrRunInProgress
	}
	if c.state.Status() == model.StatusIdle {
		return nil
	}
	c.releaseHandleLocked()
	c.state = model.IdleState()
	c.notifyLocked()
	return nil
}

// Close tears the controller down: the current run is canceled, its result
// is released and no further transition is applied. Close returns after the
// run goroutines have exited. Close is idempotent.
func (c *GenerationController) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		if c.cancel != nil {
			c.cancel()
		}
		c.releaseHandleLocked()
	}
	c.mu.Unlock()
	c.runs.Wait()
}
