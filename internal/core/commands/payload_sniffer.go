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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that identifies the media type of the returned payload.
//
// The service declares no content type contract, so the type is detected
// from the magic bytes. Payloads that cannot be identified are labeled
// video/mp4. Payloads identified as something other than video are accepted
// and logged.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/model"
)

// DefaultVideoExtension is used when the payload cannot be identified.
const DefaultVideoExtension = "mp4"

// PayloadSniffer wraps the raw bytes into a model.VideoPayload.
type PayloadSniffer struct {
	cor.BaseCommand
}

// NewPayloadSniffer is the constructor for PayloadSniffer.
func NewPayloadSniffer(name string) *PayloadSniffer {
	return &PayloadSniffer{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute detects the media type.
func (c *PayloadSniffer) Execute(context cor.Context) {
	data, ok := context.Get(c.GetInputParam()).([]byte)
	if !ok {
		c.Fail(context, fmt.Errorf("input %s is not a byte payload", c.GetInputParam()))
		return
	}

	payload := &model.VideoPayload{
		Data:      data,
		MIMEType:  model.DefaultVideoMIMEType,
		Extension: DefaultVideoExtension,
	}

	kind, err := filetype.Match(data)
	switch {
	case err != nil || kind == filetype.Unknown:
		slog.Debug("unrecognized payload, assuming mp4", "command", c.GetName(), "size", len(data))
	case !filetype.IsVideo(data):
		slog.Warn("payload is not a video", "command", c.GetName(), "mime_type", kind.MIME.Value)
		payload.MIMEType = kind.MIME.Value
		payload.Extension = kind.Extension
	default:
		payload.MIMEType = kind.MIME.Value
		payload.Extension = kind.Extension
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), payload)
}
