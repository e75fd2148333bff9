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

// Package model defines the core data structures for the application.
// This file, `transient.go`, contains the structures that only live while a
// run's network task is executing. They are passed between the commands of
// the generation chain and are never kept after the run ends.
package model

// DefaultVideoMIMEType is assumed when the payload cannot be identified.
const DefaultVideoMIMEType = "video/mp4"

// VideoPayload is the fully read body of a successful generation response.
type VideoPayload struct {
	Data      []byte // The raw video bytes.
	MIMEType  string // The detected MIME type, e.g. "video/mp4".
	Extension string // The detected extension without the dot, e.g. "mp4".
}

// Size returns the payload length in bytes.
func (p *VideoPayload) Size() int64 {
	return int64(len(p.Data))
}
