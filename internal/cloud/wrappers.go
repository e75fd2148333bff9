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

// Package cloud provides components for interacting with the generation
// service and Google Cloud. This file implements a decorator around a
// Generator that enforces a request quota against the remote service.
//
// Structs:
//   - QuotaAwareGenerator: Wraps a Generator and a rate limiter.
//
// Functions:
//   - NewQuotaAwareGenerator: Constructor.
//   - Generate: Waits for a quota token, then delegates.
package cloud

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// QuotaAwareGenerator decorates a Generator with a token bucket. Generation
// calls block until a token is available or the context ends. Health probes
// are not metered.
type QuotaAwareGenerator struct {
	Generator
	limiter *rate.Limiter
}

// NewQuotaAwareGenerator wraps wrapped with a quota of requestsPerMinute.
// A non-positive quota returns wrapped unchanged.
//
// Inputs:
//   - wrapped: The Generator that performs the calls.
//   - requestsPerMinute: The sustained call rate allowed against the service.
//
// Outputs:
//   - Generator: The metered Generator.
func NewQuotaAwareGenerator(wrapped Generator, requestsPerMinute int) Generator {
	if requestsPerMinute <= 0 {
		return wrapped
	}
	return &QuotaAwareGenerator{
		Generator: wrapped,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
	}
}

// Generate waits for the quota and calls the wrapped Generator.
func (q *QuotaAwareGenerator) Generate(ctx context.Context, body []byte) (*http.Response, error) {
	if err := q.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("generation quota wait aborted: %w", err)
	}
	return q.Generator.Generate(ctx, body)
}
