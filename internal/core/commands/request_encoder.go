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
// command that turns a generation request into the JSON body expected by the
// remote service.
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jaycherian/gcp-go-video-generator/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/model"
)

// RequestEncoder marshals a model.GenerationRequest into the wire body
// `{"text": ..., "style": ..., "image_style": ...}`.
type RequestEncoder struct {
	cor.BaseCommand
}

// NewRequestEncoder is the constructor for RequestEncoder.
func NewRequestEncoder(name string) *RequestEncoder {
	return &RequestEncoder{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute reads the request from the input parameter and writes the encoded
// body to the output parameter.
func (c *RequestEncoder) Execute(context cor.Context) {
	req, ok := context.Get(c.GetInputParam()).(model.GenerationRequest)
	if !ok {
		c.Fail(context, fmt.Errorf("input %s is not a generation request", c.GetInputParam()))
		return
	}

	body, err := json.Marshal(req)
	if err != nil {
		c.Fail(context, fmt.Errorf("failed to encode generation request: %w", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), body)
}
