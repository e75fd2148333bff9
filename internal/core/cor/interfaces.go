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

// Package cor (Chain of Responsibility) provides the building blocks the
// generation client uses to express its network task as a sequence of small
// commands. This file defines the interfaces shared by commands, chains and
// the context object that flows through them.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys a BaseChain uses to pipe the output of one
// command into the input of the next.
const (
	// CtxIn holds the primary input of a command.
	CtxIn = "__IN__"
	// CtxOut is where a command places its primary output.
	CtxOut = "__OUT__"
)

// Context is the per-execution property bag passed through a chain. It carries
// data, the errors raised by commands and the cleanup work that must run once
// the execution is over.
type Context interface {
	// SetContext sets the Go context used for cancellation and tracing.
	SetContext(context context.Context)

	// GetContext returns the Go context.
	GetContext() context.Context

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records an error, keyed by the name of the command that raised it.
	AddError(key string, err error)

	// GetErrors returns every recorded error.
	GetErrors() map[string]error

	// Get returns the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes key.
	Remove(key string)

	// HasErrors reports whether any command recorded an error.
	HasErrors() bool

	// AddCleanup registers work that must run when the execution is closed,
	// such as closing a response body a later command never consumed.
	AddCleanup(fn func())

	// Close runs the registered cleanup work in reverse registration order.
	// It is safe to call more than once.
	Close()
}

// Executable is anything with execution logic.
type Executable interface {
	Execute(context Context)
}

// Command is an atomic unit of work within a chain.
type Command interface {
	Executable

	// GetName returns the command name used for logs, spans and metrics.
	GetName() string

	// GetInputParam returns the key of the command's primary input.
	GetInputParam() string

	// GetOutputParam returns the key of the command's primary output.
	GetOutputParam() string

	// IsExecutable is the precondition check run before Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. It is itself a Command so chains
// can be nested.
type Chain interface {
	Command

	// ContinueOnFailure selects whether later commands still run after one
	// of them records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the sequence.
	AddCommand(command Command) Chain
}
