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
// service and Google Cloud. This file holds the HTTP client of the remote
// video generation service.
//
// The service is opaque: one POST carrying the request as JSON answers with
// the finished video as a binary body. Any non-2xx status is a failure. The
// service reports no progress.
package cloud

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 512

// Generator is the contract of the remote generation service.
type Generator interface {
	// Generate posts body and returns the response of a 2xx answer. The caller
	// owns and must close the response body.
	Generate(ctx context.Context, body []byte) (*http.Response, error)

	// Health returns nil when the service answers its health probe with 2xx.
	Health(ctx context.Context) error
}

// ServiceError is returned when the service answers with a non-2xx status.
type ServiceError struct {
	StatusCode int
	Status     string
	Body       string // A bounded prefix of the response body.
}

func (e *ServiceError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("generation service returned %s", e.Status)
	}
	return fmt.Sprintf("generation service returned %s: %s", e.Status, e.Body)
}

// GeneratorClient is the HTTP implementation of Generator.
type GeneratorClient struct {
	endpoint  string
	healthURL string
	client    *http.Client
}

// NewGeneratorClient creates a client for the configured service. The
// transport is wrapped with otelhttp so every call gets a client span and
// propagates the trace context. A nil transport selects http.DefaultTransport.
//
// Inputs:
//   - config: The generator section of the application configuration.
//   - transport: The base round tripper.
//
// Outputs:
//   - *GeneratorClient: The ready client.
func NewGeneratorClient(config GeneratorConfig, transport http.RoundTripper) *GeneratorClient {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &GeneratorClient{
		endpoint:  config.Endpoint,
		healthURL: config.HealthURL,
		client: &http.Client{
			Transport: otelhttp.NewTransport(transport),
			Timeout:   config.Timeout(),
		},
	}
}

// Generate issues the single generation request.
func (g *GeneratorClient) Generate(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Health probes the service.
func (g *GeneratorClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.healthURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// checkStatus closes the body of a non-2xx response and converts it into a
// ServiceError.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()
	prefix, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &ServiceError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(bytes.TrimSpace(prefix)),
	}
}
