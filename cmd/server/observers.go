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

// Package main contains the wiring of the controller observers. Observers
// receive a snapshot after every transition of the generation lifecycle.
//
// Functions:
//   - SetupObservers: Attaches the log observer and, when enabled, the Pub/Sub
//     lifecycle event publisher.
package main

import (
	"log/slog"

	"github.com/jaycherian/gcp-go-video-generator/internal/cloud"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/model"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/services"
)

// SetupObservers attaches the observers of the server to controller.
func SetupObservers(controller *services.GenerationController, cloudClients *cloud.ServiceClients) {
	controller.AddObserver(logObserver)
	if cloudClients.Events != nil {
		controller.AddObserver(cloudClients.Events.Observe)
	}
}

// logObserver writes one debug line per transition and one info line per
// terminal state.
func logObserver(s model.Snapshot) {
	switch s.Status {
	case model.StatusSuccess:
		slog.Info("generation complete", "run_id", s.RunID, "download_name", deref(s.DownloadName))
	case model.StatusError:
		slog.Info("generation failed", "run_id", s.RunID, "error", deref(s.Error))
	case model.StatusGenerating:
		slog.Debug("generation progress", "run_id", s.RunID, "stage", deref(s.Stage), "progress", s.Progress)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
