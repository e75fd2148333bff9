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

// Package main is the entry point of the video generation server.
//
// The server exposes a local REST API (gin) through which a browser UI or any
// tool submits text plus style choices, follows the synthesized progress of
// the run, previews or downloads the resulting video and releases it. The
// server is instrumented with OpenTelemetry for logging, tracing, and metrics.
//
// Functions:
//   - main: Sets up the server, configures routes, initializes services, and
//     handles graceful shutdown.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-video-generator/internal/api"
	"github.com/jaycherian/gcp-go-video-generator/internal/telemetry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config, err := GetConfig()
	if err != nil {
		log.Fatal(err)
	}

	closeLog, err := telemetry.SetupLogging(os.Stdout, config.Telemetry.LogFile)
	if err != nil {
		log.Fatal(err)
	}
	defer closeLog()
	slog.Info("Logging initialized")

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized", "export", config.Telemetry.Enabled)

	if err := InitState(ctx); err != nil {
		slog.Error("Failed to initialize state", "error", err)
		log.Fatal(err)
	}
	slog.Info("Initialized State")

	r := gin.Default()
	r.Use(otelgin.Middleware(config.Application.Name))
	r.Use(cors.Default())

	submitLimit := api.RateLimit(api.NewSubmitLimiter(config.RateLimit.SubmitPerSecond, config.RateLimit.Burst))
	apiV1 := r.Group("/api/v1")
	{
		api.GenerationRouter(apiV1, state.controller, submitLimit)
		api.StylesRouter(apiV1)
		api.HealthRouter(apiV1, state.cloud.Generator)
		api.Dashboard(apiV1, state.controller, state.store)
	}

	srv := &http.Server{
		Addr:        ":" + config.Server.Port,
		Handler:     r,
		ReadTimeout: 20 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen", "error", err)
			cancel()
		}
	}()
	slog.Info("Server Ready", "port", config.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed", "error", err)
	}
	state.controller.Close()
	state.cloud.Close()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("Telemetry Shutdown Failed", "error", err)
	}

	slog.Info("Server exiting")
}
