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

// Package cor (Chain of Responsibility) provides the fundamental building blocks
// for creating workflows. This file defines `BaseContext`, the default
// implementation of the `Context` interface.
//
// One BaseContext is created for every network task of a generation run. It
// holds:
//   - the values the commands hand to each other (`data`),
//   - the errors they raise, keyed by command name (`errors`),
//   - cleanup functions for resources that must not outlive the run (`cleanups`),
//   - the Go `context.Context` carrying cancellation and the current span.
package cor

import (
	"context"
)

// BaseContext is the default implementation of the Context interface. It is
// used by one goroutine at a time and is not safe for concurrent use.
type BaseContext struct {
	data     map[string]interface{}
	errors   map[string]error
	cleanups []func()
	context  context.Context
}

// NewBaseContext returns an empty context with all maps initialized.
func NewBaseContext() Context {
	return &BaseContext{
		data:     make(map[string]interface{}),
		errors:   make(map[string]error),
		cleanups: make([]func(), 0),
	}
}

// SetContext sets the underlying Go context. The BaseChain swaps it for each
// command so every command runs inside its own span.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext retrieves the underlying Go context.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close runs the registered cleanups, last registered first, and forgets
// them so a second call is a no-op.
func (c *BaseContext) Close() {
	for i := len(c.cleanups) - 1; i >= 0; i-- {
		c.cleanups[i]()
	}
	c.cleanups = c.cleanups[:0]
}

// Add stores a key-value pair in the context's data map.
//
// Inputs:
//   - key: The string key to store the data under.
//   - value: The data (of any type) to store.
//
// Outputs:
//   - Context: The context instance, allowing for fluent method chaining.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddCleanup registers fn to run on Close.
func (c *BaseContext) AddCleanup(fn func()) {
	if fn != nil {
		c.cleanups = append(c.cleanups, fn)
	}
}

// AddError adds an error to the context's error map, keyed by the command name.
func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

// GetErrors returns the map of all errors collected during the execution.
func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// Get retrieves a value from the context's data map by its key.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

// Remove deletes a key-value pair from the context's data map.
func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// HasErrors checks if any errors have been added to the context.
func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}
