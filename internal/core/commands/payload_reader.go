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
// command that reads the binary video out of the service response.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jaycherian/gcp-go-video-generator/internal/core/cor"
)

// ErrEmptyPayload is recorded when a successful answer carries no bytes.
var ErrEmptyPayload = errors.New("generation service returned an empty payload")

// PayloadReader consumes the body of an *http.Response.
type PayloadReader struct {
	cor.BaseCommand
	maxBytes int64
}

// NewPayloadReader is the constructor for PayloadReader. A positive maxBytes
// bounds the payload; larger answers are rejected.
func NewPayloadReader(name string, maxBytes int64) *PayloadReader {
	return &PayloadReader{BaseCommand: *cor.NewBaseCommand(name), maxBytes: maxBytes}
}

// Execute reads and closes the body.
func (c *PayloadReader) Execute(context cor.Context) {
	resp, ok := context.Get(c.GetInputParam()).(*http.Response)
	if !ok {
		c.Fail(context, fmt.Errorf("input %s is not an http response", c.GetInputParam()))
		return
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close payload body", "command", c.GetName(), "error", err)
		}
	}()

	var reader io.Reader = resp.Body
	if c.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, c.maxBytes+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		c.Fail(context, fmt.Errorf("failed to read video payload after %d bytes: %w", len(data), err))
		return
	}
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		c.Fail(context, fmt.Errorf("video payload exceeds %d bytes", c.maxBytes))
		return
	}
	if len(data) == 0 {
		c.Fail(context, ErrEmptyPayload)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), data)
}
