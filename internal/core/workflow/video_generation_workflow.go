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

// Package workflow defines the high-level orchestrations, combining commands
// into coherent pipelines. This file implements the network task of a
// generation run.
package workflow

import (
	"github.com/jaycherian/gcp-go-video-generator/internal/cloud"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/cor"
)

// DefaultMaxPayloadBytes bounds the size of an accepted video.
const DefaultMaxPayloadBytes = 1 << 30

// VideoGenerationWorkflow runs the single request of a generation run:
// encode the request, post it, read the payload and identify its type.
//
// The chain expects a model.GenerationRequest under cor.CtxIn. After a
// successful execution the *model.VideoPayload is found under cor.CtxIn.
type VideoGenerationWorkflow struct {
	cor.BaseCommand
	generator       cloud.Generator
	maxPayloadBytes int64
	chain           cor.Chain
}

// Execute runs the underlying command chain.
//
// Inputs:
//   - context: The chain context carrying the request and, optionally, a
//     commands.ResponseHook under commands.ResponseHookParam.
func (w *VideoGenerationWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// IsExecutable delegates to the chain.
func (w *VideoGenerationWorkflow) IsExecutable(context cor.Context) bool {
	return w.chain.IsExecutable(context)
}

func (w *VideoGenerationWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())
	out.AddCommand(commands.NewRequestEncoder("video-request-encoder"))
	out.AddCommand(commands.NewVideoRequest("video-request", w.generator))
	out.AddCommand(commands.NewPayloadReader("video-payload-reader", w.maxPayloadBytes))
	out.AddCommand(commands.NewPayloadSniffer("video-payload-sniffer"))
	w.chain = out
}

// NewVideoGenerationWorkflow is the constructor for VideoGenerationWorkflow.
//
// Inputs:
//   - serviceClients: The initialized external clients; only the Generator is used.
//   - maxPayloadBytes: Upper bound on the video size; non-positive selects DefaultMaxPayloadBytes.
//
// Returns:
//   - A pointer to a fully initialized VideoGenerationWorkflow.
func NewVideoGenerationWorkflow(serviceClients *cloud.ServiceClients, maxPayloadBytes int64) *VideoGenerationWorkflow {
	if maxPayloadBytes <= 0 {
		maxPayloadBytes = DefaultMaxPayloadBytes
	}
	out := &VideoGenerationWorkflow{
		BaseCommand:     *cor.NewBaseCommand("video-generation-workflow"),
		generator:       serviceClients.Generator,
		maxPayloadBytes: maxPayloadBytes,
	}
	out.initializeChain()
	return out
}
