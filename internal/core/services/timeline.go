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
// This file builds and runs the synthesized progress timeline.
//
// The remote service reports no progress, so a run shows a scripted sequence
// of labeled checkpoints. Each stage owns a band of the 0-100 scale:
//
//	text processing   [0, 10)
//	image generation  [10, 40), split evenly across the sentence segments
//	narration         [40, 70)
//	composition       [70, 90)
//	finalizing        [90, 100], reserved for the real response
//
// The request is issued once the first composition checkpoint is shown. The
// timeline stops at the last composition checkpoint and holds there until
// the network task ends the run.
package services

import (
	"context"
	"time"

	"github.com/jaycherian/gcp-go-video-generator/internal/core/model"
)

// Band boundaries of the progress scale.
const (
	TextProcessingPercent = 5.0
	ImagesStartPercent    = 10.0
	ImagesBand            = 30.0
	NarrationPercent      = 40.0
	NarrationMidPercent   = 55.0
	CompositionPercent    = 70.0
	CompositionMidPercent = 80.0
	FinalizingPercent     = 90.0
)

// Default cadence of the timeline.
const (
	DefaultStageDelay = time.Second
	DefaultStepDelay  = 500 * time.Millisecond
)

// TimelineCadence holds the pauses of the timeline.
type TimelineCadence struct {
	StageDelay time.Duration // Pause after each stage checkpoint.
	StepDelay  time.Duration // Pause before each image step.
}

// DefaultCadence returns the standard one second / half second cadence.
func DefaultCadence() TimelineCadence {
	return TimelineCadence{StageDelay: DefaultStageDelay, StepDelay: DefaultStepDelay}
}

// TimelineStep is one checkpoint: wait Delay, then show Stage at Percent.
type TimelineStep struct {
	Stage   string
	Percent float64
	Delay   time.Duration
}

// BuildTimeline plans the checkpoints for text. The plan is pure: the same
// text and cadence always give the same steps. Percentages are
// non-decreasing and stay below FinalizingPercent.
//
// Inputs:
//   - text: The request text; its sentence segments drive the image steps.
//   - cadence: The pauses to use.
//
// Outputs:
//   - []TimelineStep: The ordered checkpoints.
func BuildTimeline(text string, cadence TimelineCadence) []TimelineStep {
	steps := []TimelineStep{
		{Stage: model.StageTextProcessing, Percent: TextProcessingPercent},
		{Stage: model.StageImages, Percent: ImagesStartPercent, Delay: cadence.StageDelay},
	}

	k := len(SentenceSegments(text))
	if k == 0 {
		steps = append(steps, TimelineStep{Stage: model.StageImages, Percent: ImagesStartPercent + ImagesBand, Delay: cadence.StepDelay})
	}
	for i := 1; i <= k; i++ {
		steps = append(steps, TimelineStep{
			Stage:   model.StageImages,
			Percent: ImagesStartPercent + float64(i)*ImagesBand/float64(k),
			Delay:   cadence.StepDelay,
		})
	}

	return append(steps,
		TimelineStep{Stage: model.StageNarration, Percent: NarrationPercent, Delay: cadence.StageDelay},
		TimelineStep{Stage: model.StageNarration, Percent: NarrationMidPercent, Delay: cadence.StageDelay},
		TimelineStep{Stage: model.StageComposition, Percent: CompositionPercent, Delay: cadence.StageDelay},
		TimelineStep{Stage: model.StageComposition, Percent: CompositionMidPercent, Delay: cadence.StageDelay},
	)
}

// RunTimeline plays steps, calling apply for each one after its delay. It
// returns when the steps are exhausted, when ctx ends, or when apply returns
// false.
func RunTimeline(ctx context.Context, steps []TimelineStep, apply func(TimelineStep) bool) {
	for _, step := range steps {
		if !wait(ctx, step.Delay) {
			return
		}
		if !apply(step) {
			return
		}
	}
}

// wait pauses for d and reports whether ctx is still live afterwards.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
