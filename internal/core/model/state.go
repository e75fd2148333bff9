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

// Package model defines the data structures for the application. This file,
// `state.go`, contains the lifecycle state of a single generation run.
//
// GenerationState is a closed variant over {idle, generating, success, error}.
// Its fields are unexported and a value can only be produced by the transition
// functions below, so combinations such as "success with an error message" or
// "generating with a result handle" cannot be built.
package model

import (
	"errors"
	"fmt"
)

// Status is the lifecycle phase of a run.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusGenerating Status = "generating"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// Stage labels shown while a run is in flight.
const (
	StageInitializing   = "Initializing..."
	StageTextProcessing = "Processing text..."
	StageImages         = "Generating images..."
	StageNarration      = "Generating voice narration..."
	StageComposition    = "Composing video..."
	StageFinalizing     = "Finalizing..."
	StageComplete       = "Complete!"
)

// CompletePercent is only ever reached by the success transition.
const CompletePercent = 100.0

// GenericFailureMessage is the only failure text a user ever sees.
const GenericFailureMessage = "Failed to generate video. Please try again."

var (
	ErrNotGenerating      = errors.New("run is not generating")
	ErrProgressRegression = errors.New("progress must not decrease")
	ErrProgressOutOfRange = errors.New("progress must be within [0,100)")
)

// ResourceHandle is an opaque reference to a downloaded video payload held by
// the resource store.
type ResourceHandle struct {
	ID       string `json:"id"`
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// GenerationState is the state of one run. The zero value is idle.
type GenerationState struct {
	status   Status
	stage    string
	progress float64
	handle   ResourceHandle
	title    string
	errorMsg string
}

// IdleState returns the initial state.
func IdleState() GenerationState {
	return GenerationState{status: StatusIdle}
}

// StartRun returns the first state of a fresh run.
func StartRun() GenerationState {
	return GenerationState{status: StatusGenerating, stage: StageInitializing, progress: 0}
}

// Advance moves an in-flight run to a new stage and percentage.
//
// Inputs:
//   - stage: The human-readable stage label.
//   - percent: The new progress. It must not be lower than the current value
//     and must stay below CompletePercent.
//
// Outputs:
//   - GenerationState: The next state.
//   - error: ErrNotGenerating, ErrProgressRegression or ErrProgressOutOfRange.
func (s GenerationState) Advance(stage string, percent float64) (GenerationState, error) {
	if s.status != StatusGenerating {
		return s, ErrNotGenerating
	}
	if percent < 0 || percent >= CompletePercent {
		return s, fmt.Errorf("%w: got %.2f", ErrProgressOutOfRange, percent)
	}
	if percent < s.progress {
		return s, fmt.Errorf("%w: %.2f < %.2f", ErrProgressRegression, percent, s.progress)
	}
	return GenerationState{status: StatusGenerating, stage: stage, progress: percent}, nil
}

// Succeed is the success transition. The title is the default title derived
// from the submitted text.
func (s GenerationState) Succeed(handle ResourceHandle, title string) (GenerationState, error) {
	if s.status != StatusGenerating {
		return s, ErrNotGenerating
	}
	return GenerationState{status: StatusSuccess, stage: StageComplete, progress: CompletePercent, handle: handle, title: title}, nil
}

// Fail is the failure transition.
func (s GenerationState) Fail(message string) (GenerationState, error) {
	if s.status != StatusGenerating {
		return s, ErrNotGenerating
	}
	return GenerationState{status: StatusError, errorMsg: message}, nil
}

// Status returns the lifecycle phase.
func (s GenerationState) Status() Status {
	if s.status == "" {
		return StatusIdle
	}
	return s.status
}

// IsTerminal reports whether the run has reached success or error.
func (s GenerationState) IsTerminal() bool {
	return s.status == StatusSuccess || s.status == StatusError
}

// Stage returns the stage label; it exists while generating and on success.
func (s GenerationState) Stage() (string, bool) {
	return s.stage, s.status == StatusGenerating || s.status == StatusSuccess
}

// Progress returns the percentage; it exists while generating and on success.
func (s GenerationState) Progress() (float64, bool) {
	return s.progress, s.status == StatusGenerating || s.status == StatusSuccess
}

// Handle returns the result handle; it exists only on success.
func (s GenerationState) Handle() (ResourceHandle, bool) {
	return s.handle, s.status == StatusSuccess
}

// Title returns the default title derived on success.
func (s GenerationState) Title() (string, bool) {
	return s.title, s.status == StatusSuccess
}

// ErrorMessage returns the user-facing failure text; it exists only on error.
func (s GenerationState) ErrorMessage() (string, bool) {
	return s.errorMsg, s.status == StatusError
}
