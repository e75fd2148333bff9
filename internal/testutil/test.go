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

// Package test provides utility functions and fakes that support the
// application's test suite: a fake generation service built on httptest,
// sample payloads and a configuration pointing at the fake.
package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-video-generator/internal/cloud"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/model"
)

// Paths served by the fake generation service.
const (
	GeneratePath = "/generate-video"
	HealthPath   = "/"
)

// HandleErr fails the test immediately when err is not nil.
//
// Inputs:
//   - err: The error to check.
//   - t: The *testing.T object from the current test.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// MP4Payload returns a small byte slice that starts with an ISO base media
// `ftyp` box, which is enough for content sniffing to report video/mp4.
func MP4Payload() []byte {
	header := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00}
	return append(header, []byte("isomiso2avc1mp41 fake video payload")...)
}

// PNGPayload returns bytes recognized as image/png.
func PNGPayload() []byte {
	return []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R'}
}

// FakeService is an httptest server imitating the remote generation service.
// Requests are recorded; answers are produced by the configured handler.
type FakeService struct {
	*httptest.Server

	mu       sync.Mutex
	requests []model.GenerationRequest
	answer   http.HandlerFunc
}

// NewFakeService starts a fake service that answers every generation request
// with answer. The server is closed when the test ends.
func NewFakeService(t *testing.T, answer http.HandlerFunc) *FakeService {
	t.Helper()
	f := &FakeService{answer: answer}

	mux := http.NewServeMux()
	mux.HandleFunc(GeneratePath, f.generate)
	mux.HandleFunc(HealthPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeService) generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req model.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	f.answer(w, r)
}

// Requests returns the decoded requests received so far.
func (f *FakeService) Requests() []model.GenerationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.GenerationRequest(nil), f.requests...)
}

// Generator returns a client of this fake.
func (f *FakeService) Generator() cloud.Generator {
	return cloud.NewGeneratorClient(f.GeneratorConfig(), nil)
}

// GeneratorConfig returns the Generator section pointing at this fake.
func (f *FakeService) GeneratorConfig() cloud.GeneratorConfig {
	return cloud.GeneratorConfig{
		Endpoint:       f.URL + GeneratePath,
		HealthURL:      f.URL + HealthPath,
		TimeoutSeconds: 10,
	}
}

// Config returns an application configuration pointing at this fake with a
// millisecond timeline cadence.
func (f *FakeService) Config() *cloud.Config {
	config := cloud.NewConfig()
	config.Generator = f.GeneratorConfig()
	config.Timeline = cloud.Timeline{StageDelayMs: 1, StepDelayMs: 1}
	config.RateLimit = cloud.RateLimit{SubmitPerSecond: 1000, Burst: 1000}
	return config
}

// VideoAnswer answers with status 200 and body.
func VideoAnswer(body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

// StatusAnswer answers with code and a short text body.
func StatusAnswer(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, http.StatusText(code), code)
	}
}

// BlockingAnswer waits until release is closed or the request is canceled,
// then answers like VideoAnswer.
func BlockingAnswer(release <-chan struct{}, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		VideoAnswer(body)(w, r)
	}
}

// HeadersThenBlock sends the success headers, flushes them, then waits for
// release before writing body.
func HeadersThenBlock(release <-chan struct{}, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.WriteHeader(http.StatusOK)
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write(body)
	}
}
