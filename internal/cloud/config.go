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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, and the clients used to reach the remote video
// generation service and Google Cloud.
//
// This file centralizes all configuration-related structs.
//
// Structs:
//   - GeneratorConfig: Where the remote generation service lives and how long to wait for it.
//   - Timeline: The cadence of the synthesized progress timeline.
//   - Server: The local HTTP API settings.
//   - RateLimit: Submit throttling for the local API and the remote service.
//   - Telemetry: Logging and OpenTelemetry export settings.
//   - Events: Pub/Sub lifecycle event settings.
//   - Config: The top-level struct that aggregates all other configuration structs.
//
// Functions:
//   - NewConfig: A constructor that initializes a Config with working defaults.
package cloud

import "time"

// GeneratorConfig represents the configuration of the remote generation service.
type GeneratorConfig struct {
	Endpoint       string `toml:"endpoint"`        // The URL that receives the generation POST.
	HealthURL      string `toml:"health_url"`      // The URL probed by the health check.
	TimeoutSeconds int    `toml:"timeout_seconds"` // Upper bound on one request; zero means no bound.
}

// Timeout returns the request timeout as a duration.
func (g GeneratorConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// Timeline represents the delays of the synthesized progress timeline.
type Timeline struct {
	StageDelayMs int `toml:"stage_delay_ms"` // Pause after each stage checkpoint.
	StepDelayMs  int `toml:"step_delay_ms"`  // Pause before each image step.
}

// Server represents the configuration of the local HTTP API.
type Server struct {
	Port string `toml:"port"` // The port to listen on.
}

// RateLimit represents submit throttling.
type RateLimit struct {
	SubmitPerSecond   float64 `toml:"submit_per_second"`   // Accepted submissions per second on the local API.
	Burst             int     `toml:"burst"`               // Burst size of the submit limiter.
	RequestsPerMinute int     `toml:"requests_per_minute"` // Calls per minute allowed against the remote service; zero disables the quota.
}

// Telemetry represents logging and export settings.
type Telemetry struct {
	Enabled bool   `toml:"enabled"`  // Export traces and metrics to Google Cloud.
	LogFile string `toml:"log_file"` // Optional file that receives a copy of the logs.
}

// Events represents the Pub/Sub lifecycle event settings.
type Events struct {
	Enabled bool   `toml:"enabled"` // Publish one message per status change.
	Topic   string `toml:"topic"`   // The topic ID to publish to.
}

// Config represents the overall configuration for the application, loaded from TOML files.
// It acts as the root container for all other configuration structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name            string `toml:"name"`              // The name of the application.
		GoogleProjectId string `toml:"google_project_id"` // The Google Cloud project ID.
		GoogleLocation  string `toml:"location"`          // The Google Cloud location.
	} `toml:"application"`
	Generator GeneratorConfig `toml:"generator"`  // Remote service configuration.
	Timeline  Timeline        `toml:"timeline"`   // Progress cadence.
	Server    Server          `toml:"server"`     // Local API.
	RateLimit RateLimit       `toml:"rate_limit"` // Throttling.
	Telemetry Telemetry       `toml:"telemetry"`  // Observability.
	Events    Events          `toml:"events"`     // Lifecycle events.
}

// NewConfig is a constructor function that creates a Config holding the
// defaults of a local development setup. Values decoded from TOML files
// overwrite them.
//
// Outputs:
//   - *Config: A pointer to a new Config struct.
func NewConfig() *Config {
	c := &Config{
		Generator: GeneratorConfig{
			Endpoint:       "http://localhost:8000/generate-video",
			HealthURL:      "http://localhost:8000/",
			TimeoutSeconds: 600,
		},
		Timeline:  Timeline{StageDelayMs: 1000, StepDelayMs: 500},
		Server:    Server{Port: "8080"},
		RateLimit: RateLimit{SubmitPerSecond: 1, Burst: 1},
	}
	c.Application.Name = "video-generator"
	return c
}
