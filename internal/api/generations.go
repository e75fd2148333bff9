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
// API. The routes are registered on a gin router group, normally "/api/v1".
//
// Functions:
//   - GenerationRouter: submit a run, read its state, fetch or release the video.
//   - StylesRouter: the closed style vocabularies and their defaults.
//   - HealthRouter: reachability of the remote generation service.
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-video-generator/internal/cloud"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/model"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/services"
)

// SubmitRequest is the JSON body of POST /generations. Empty styles select
// the defaults.
type SubmitRequest struct {
	Text       string `json:"text"`
	Style      string `json:"style"`
	ImageStyle string `json:"image_style"`
}

// ErrorResponse is the JSON body of every 4xx/5xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// GenerationRouter sets up the routes of the generation lifecycle.
//
// Inputs:
//   - r: The router group to extend.
//   - controller: The lifecycle controller.
//   - submitLimit: Middleware applied to the submit route only.
//
// This function defines the following endpoints:
//   - POST /generations: Starts a run. 202 with the snapshot, 400 on an invalid
//     request, 409 while a run is generating, 503 after shutdown began.
//   - GET /generations/current: The current snapshot.
//   - GET /generations/current/video: The video of a successful run. `title`
//     overrides the download name; `inline=1` serves it for preview.
//   - DELETE /generations/current/video: Releases the video; 204.
func GenerationRouter(r *gin.RouterGroup, controller *services.GenerationController, submitLimit gin.HandlerFunc) {
	generations := r.Group("/generations")
	{
		generations.POST("", submitLimit, func(c *gin.Context) {
			var body SubmitRequest
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "request body must be JSON"})
				return
			}

			req := model.NewGenerationRequest(body.Text, model.VoiceStyle(body.Style), model.ImageStyle(body.ImageStyle))
			if err := req.Validate(); err != nil {
				var vErr *model.ValidationError
				if errors.As(err, &vErr) {
					c.JSON(http.StatusBadRequest, ErrorResponse{Error: vErr.Reason, Field: vErr.Field})
					return
				}
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
				return
			}

			switch err := controller.Submit(c.Request.Context(), req); {
			case errors.Is(err, services.ErrRunInProgress):
				c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
			case errors.Is(err, services.ErrControllerClosed):
				c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
			case err != nil:
				slog.ErrorContext(c.Request.Context(), "submit failed", "error", err)
				c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "submit failed"})
			default:
				c.JSON(http.StatusAccepted, controller.Snapshot())
			}
		})

		generations.GET("/current", func(c *gin.Context) {
			c.JSON(http.StatusOK, controller.Snapshot())
		})

		generations.GET("/current/video", func(c *gin.Context) {
			reader, handle, title, err := controller.OpenResult()
			if err != nil {
				c.JSON(http.StatusNotFound, ErrorResponse{Error: services.ErrNoResult.Error()})
				return
			}

			name := services.DeriveDownloadName(services.ResolveTitle(c.Query("title"), title))
			disposition := "attachment"
			if c.Query("inline") == "1" {
				disposition = "inline"
			}
			c.Header("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, name))
			c.Header("Content-Type", handle.MIMEType)
			http.ServeContent(c.Writer, c.Request, name, time.Time{}, reader)
		})

		generations.DELETE("/current/video", func(c *gin.Context) {
			switch err := controller.Release(); {
			case errors.Is(err, services.ErrRunInProgress):
				c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
			case errors.Is(err, services.ErrControllerClosed):
				c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
			default:
				c.Status(http.StatusNoContent)
			}
		})
	}
}

// StylesRouter exposes the style vocabularies at GET /styles.
func StylesRouter(r *gin.RouterGroup) {
	r.GET("/styles", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"voice_styles":        model.VoiceStyles(),
			"image_styles":        model.ImageStyles(),
			"default_voice_style": model.DefaultVoiceStyle,
			"default_image_style": model.DefaultImageStyle,
		})
	})
}

// HealthRouter exposes GET /health, which probes the generation service.
func HealthRouter(r *gin.RouterGroup, generator cloud.Generator) {
	r.GET("/health", func(c *gin.Context) {
		if err := generator.Health(c.Request.Context()); err != nil {
			slog.WarnContext(c.Request.Context(), "generation service unhealthy", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
