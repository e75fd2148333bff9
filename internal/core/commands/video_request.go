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
// command that issues the single request to the generation service.
//
// Logic Flow:
//  1. Receives the encoded request body from the context.
//  2. Posts it through the cloud.Generator; non-2xx answers arrive as a
//     *cloud.ServiceError and are recorded as the command's error.
//  3. Registers a cleanup on the context that closes the response body, so an
//     aborted chain never leaks the connection.
//  4. Calls the optional ResponseHook found under ResponseHookParam. The hook
//     runs as soon as the headers of a successful answer are in, before the
//     body is read.
//  5. Places the *http.Response in the output parameter.
package commands

import (
	"fmt"
	"net/http"

	"github.com/jaycherian/gcp-go-video-generator/internal/cloud"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/cor"
)

// ResponseHookParam is the context key of the optional ResponseHook.
const ResponseHookParam = "__RESPONSE_HOOK__"

// ResponseHook is notified when the service has accepted the request and
// started sending the video.
type ResponseHook func(resp *http.Response)

// VideoRequest posts the generation request and hands the response on.
type VideoRequest struct {
	cor.BaseCommand
	generator cloud.Generator
}

// NewVideoRequest is the constructor for VideoRequest.
//
// Inputs:
//   - name: A string name for this command instance.
//   - generator: The client of the generation service.
//
// Outputs:
//   - *VideoRequest: The command.
func NewVideoRequest(name string, generator cloud.Generator) *VideoRequest {
	return &VideoRequest{
		BaseCommand: *cor.NewBaseCommand(name),
		generator:   generator,
	}
}

// Execute performs the request.
func (c *VideoRequest) Execute(context cor.Context) {
	body, ok := context.Get(c.GetInputParam()).([]byte)
	if !ok {
		c.Fail(context, fmt.Errorf("input %s is not a request body", c.GetInputParam()))
		return
	}

	resp, err := c.generator.Generate(context.GetContext(), body)
	if err != nil {
		c.Fail(context, err)
		return
	}
	context.AddCleanup(func() { _ = resp.Body.Close() })

	if hook, ok := context.Get(ResponseHookParam).(ResponseHook); ok && hook != nil {
		hook(resp)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), resp)
}
