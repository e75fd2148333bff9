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

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-video-generator/internal/api"
	"github.com/jaycherian/gcp-go-video-generator/internal/cloud"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/model"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/services"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-video-generator/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fixture struct {
	router     *gin.Engine
	controller *services.GenerationController
	store      *services.ResourceStore
}

func newFixture(t *testing.T, answer http.HandlerFunc, limiter *rate.Limiter) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := test.NewFakeService(t, answer)
	generator := fake.Generator()
	store := services.NewResourceStore()
	network := workflow.NewVideoGenerationWorkflow(&cloud.ServiceClients{Generator: generator}, 0)
	controller := services.NewGenerationController(network, store, services.TimelineCadence{StageDelay: time.Millisecond, StepDelay: time.Millisecond})
	t.Cleanup(controller.Close)

	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	router := gin.New()
	v1 := router.Group("/api/v1")
	api.GenerationRouter(v1, controller, api.RateLimit(limiter))
	api.StylesRouter(v1)
	api.HealthRouter(v1, generator)
	api.Dashboard(v1, controller, store)
	return &fixture{router: router, controller: controller, store: store}
}

func (f *fixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) wait(t *testing.T) model.Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	snap, err := f.controller.Wait(ctx)
	require.NoError(t, err)
	return snap
}

func TestSubmitAndDownload(t *testing.T) {
	f := newFixture(t, test.VideoAnswer(test.MP4Payload()), nil)

	w := f.do(http.MethodPost, "/api/v1/generations", api.SubmitRequest{Text: "A cat sat. It purred.", Style: "friendly"})
	require.Equal(t, http.StatusAccepted, w.Code)
	var accepted model.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	assert.NotEmpty(t, accepted.RunID)

	f.wait(t)

	w = f.do(http.MethodGet, "/api/v1/generations/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var current model.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &current))
	assert.Equal(t, model.StatusSuccess, current.Status)
	assert.Equal(t, "A_cat_sat.mp4", *current.DownloadName)

	w = f.do(http.MethodGet, "/api/v1/generations/current/video", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, test.MP4Payload(), w.Body.Bytes())
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="A_cat_sat.mp4"`, w.Header().Get("Content-Disposition"))

	w = f.do(http.MethodGet, "/api/v1/generations/current/video?title=My+Holiday!&inline=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `inline; filename="My_Holiday.mp4"`, w.Header().Get("Content-Disposition"))

	w = f.do(http.MethodGet, "/api/v1/stats", nil)
	assert.JSONEq(t, `{"status":"success","live_results":1}`, w.Body.String())

	w = f.do(http.MethodDelete, "/api/v1/generations/current/video", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, f.store.Len())

	w = f.do(http.MethodGet, "/api/v1/generations/current/video", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t, test.VideoAnswer(test.MP4Payload()), nil)

	cases := map[string]api.SubmitRequest{
		"text":        {Text: "   "},
		"style":       {Text: "Hi.", Style: "whisper"},
		"image_style": {Text: "Hi.", ImageStyle: "pixel art"},
	}
	for field, body := range cases {
		w := f.do(http.MethodPost, "/api/v1/generations", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, field)
		var resp api.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, field, resp.Field)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generations", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, model.StatusIdle, f.controller.Snapshot().Status)
}

func TestSubmitConflictAndFailure(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, test.BlockingAnswer(release, nil), nil)

	require.Equal(t, http.StatusAccepted, f.do(http.MethodPost, "/api/v1/generations", api.SubmitRequest{Text: "One."}).Code)
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/v1/generations", api.SubmitRequest{Text: "Two."}).Code)
	assert.Equal(t, http.StatusConflict, f.do(http.MethodDelete, "/api/v1/generations/current/video", nil).Code)

	close(release)
	snap := f.wait(t)
	assert.Equal(t, model.StatusError, snap.Status)
	assert.Equal(t, model.GenericFailureMessage, *snap.Error)
}

func TestSubmitRateLimited(t *testing.T) {
	f := newFixture(t, test.VideoAnswer(test.MP4Payload()), rate.NewLimiter(rate.Every(time.Hour), 1))

	require.Equal(t, http.StatusAccepted, f.do(http.MethodPost, "/api/v1/generations", api.SubmitRequest{Text: "One."}).Code)
	f.wait(t)
	assert.Equal(t, http.StatusTooManyRequests, f.do(http.MethodPost, "/api/v1/generations", api.SubmitRequest{Text: "Two."}).Code)
}

func TestSubmitAfterClose(t *testing.T) {
	f := newFixture(t, test.VideoAnswer(test.MP4Payload()), nil)
	f.controller.Close()
	assert.Equal(t, http.StatusServiceUnavailable, f.do(http.MethodPost, "/api/v1/generations", api.SubmitRequest{Text: "One."}).Code)
}

func TestStylesAndHealth(t *testing.T) {
	f := newFixture(t, test.VideoAnswer(test.MP4Payload()), nil)

	w := f.do(http.MethodGet, "/api/v1/styles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var styles struct {
		VoiceStyles       []string `json:"voice_styles"`
		ImageStyles       []string `json:"image_styles"`
		DefaultVoiceStyle string   `json:"default_voice_style"`
		DefaultImageStyle string   `json:"default_image_style"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &styles))
	assert.Equal(t, []string{"natural", "friendly", "professional", "newscast"}, styles.VoiceStyles)
	assert.Len(t, styles.ImageStyles, 7)
	assert.Equal(t, "natural", styles.DefaultVoiceStyle)
	assert.Equal(t, "digital art", styles.DefaultImageStyle)

	w = f.do(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api.HealthRouter(router.Group("/api/v1"), cloud.NewGeneratorClient(cloud.GeneratorConfig{HealthURL: "http://127.0.0.1:1/"}, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
