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

package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-video-generator/internal/core/model"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/services"
	"github.com/stretchr/testify/assert"
)

func percents(steps []services.TimelineStep) []float64 {
	out := make([]float64, len(steps))
	for i, s := range steps {
		out[i] = s.Percent
	}
	return out
}

func TestBuildTimelineScalesImageSteps(t *testing.T) {
	cadence := services.DefaultCadence()

	assert.Equal(t, []float64{5, 10, 25, 40, 40, 55, 70, 80},
		percents(services.BuildTimeline("A cat sat. It purred.", cadence)))

	assert.Equal(t, []float64{5, 10, 20, 30, 40, 40, 55, 70, 80},
		percents(services.BuildTimeline("One. Two! Three?", cadence)))

	assert.Equal(t, []float64{5, 10, 40, 40, 55, 70, 80},
		percents(services.BuildTimeline("...", cadence)))
}

func TestBuildTimelineStagesAndDelays(t *testing.T) {
	cadence := services.TimelineCadence{StageDelay: 3 * time.Second, StepDelay: 7 * time.Millisecond}
	steps := services.BuildTimeline("A. B.", cadence)

	assert.Equal(t, model.StageTextProcessing, steps[0].Stage)
	assert.Zero(t, steps[0].Delay)
	assert.Equal(t, model.StageImages, steps[1].Stage)
	assert.Equal(t, cadence.StageDelay, steps[1].Delay)
	assert.Equal(t, cadence.StepDelay, steps[2].Delay)
	assert.Equal(t, cadence.StepDelay, steps[3].Delay)
	assert.Equal(t, model.StageNarration, steps[4].Stage)
	assert.Equal(t, model.StageComposition, steps[len(steps)-1].Stage)
}

func TestBuildTimelineIsMonotonicBelowFinalizing(t *testing.T) {
	texts := []string{"", "x", "A. B. C. D. E. F. G. H. I. J. K.", "No punctuation at all", "?!"}
	for _, text := range texts {
		prev := 0.0
		for _, step := range services.BuildTimeline(text, services.DefaultCadence()) {
			assert.GreaterOrEqual(t, step.Percent, prev, "text %q", text)
			assert.Less(t, step.Percent, services.FinalizingPercent, "text %q", text)
			prev = step.Percent
		}
	}
}

func TestRunTimelineStopsWhenApplyRefuses(t *testing.T) {
	steps := services.BuildTimeline("A. B.", services.TimelineCadence{})
	var applied []float64
	services.RunTimeline(context.Background(), steps, func(s services.TimelineStep) bool {
		applied = append(applied, s.Percent)
		return len(applied) < 3
	})
	assert.Equal(t, []float64{5, 10, 25}, applied)
}

func TestRunTimelineStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	steps := services.BuildTimeline("A.", services.TimelineCadence{StageDelay: time.Hour, StepDelay: time.Hour})

	done := make(chan struct{})
	var applied int
	go func() {
		defer close(done)
		services.RunTimeline(ctx, steps, func(services.TimelineStep) bool {
			applied++
			return true
		})
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeline did not stop after cancel")
	}
	assert.LessOrEqual(t, applied, 1)
}
