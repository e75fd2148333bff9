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

package model

// Snapshot is the read-only view of the controller state handed to the
// presentation layer. Optional fields are nil when the state does not carry
// them.
type Snapshot struct {
	RunID        string          `json:"run_id,omitempty"`
	Status       Status          `json:"status"`
	Stage        *string         `json:"stage,omitempty"`
	Progress     *float64        `json:"progress,omitempty"`
	Handle       *ResourceHandle `json:"handle,omitempty"`
	Error        *string         `json:"error,omitempty"`
	Title        *string         `json:"title,omitempty"`
	DownloadName *string         `json:"download_name,omitempty"`
}

// NewSnapshot copies a state into its read-only view. The download name is
// supplied by the caller because it is derived, never stored.
func NewSnapshot(runID string, s GenerationState, downloadName string) Snapshot {
	out := Snapshot{RunID: runID, Status: s.Status()}
	if v, ok := s.Stage(); ok {
		out.Stage = &v
	}
	if v, ok := s.Progress(); ok {
		out.Progress = &v
	}
	if v, ok := s.Handle(); ok {
		out.Handle = &v
	}
	if v, ok := s.ErrorMessage(); ok {
		out.Error = &v
	}
	if v, ok := s.Title(); ok {
		out.Title = &v
		out.DownloadName = &downloadName
	}
	return out
}
