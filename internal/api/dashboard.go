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

// Package api contains the HTTP route definitions of the local generation
// API. This file defines the statistics endpoint.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/services"
)

// Stats is the body of GET /stats.
type Stats struct {
	Status      string `json:"status"`       // Status of the current run.
	LiveResults int    `json:"live_results"` // Number of videos held in memory.
}

// Dashboard configures the statistics routes under "/stats".
//
// Inputs:
//   - r: The router group to extend.
//   - controller: The lifecycle controller.
//   - store: The store holding result videos.
func Dashboard(r *gin.RouterGroup, controller *services.GenerationController, store *services.ResourceStore) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			c.JSON(http.StatusOK, Stats{
				Status:      string(controller.Snapshot().Status),
				LiveResults: store.Len(),
			})
		})
	}
}
