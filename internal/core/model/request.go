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

// Package model defines the data structures for the application. This file,
// `request.go`, holds the value submitted to the remote generation service
// together with the closed sets of style tokens the service understands.
package model

import (
	"fmt"
	"strings"
)

// VoiceStyle is an opaque token selecting the narration voice.
type VoiceStyle string

// ImageStyle is an opaque token selecting the look of the generated scenes.
type ImageStyle string

// Voice styles accepted by the generation service.
const (
	VoiceNatural      VoiceStyle = "natural"
	VoiceFriendly     VoiceStyle = "friendly"
	VoiceProfessional VoiceStyle = "professional"
	VoiceNewscast     VoiceStyle = "newscast"
)

// Image styles accepted by the generation service.
const (
	ImageDigitalArt  ImageStyle = "digital art"
	ImageRealistic   ImageStyle = "realistic"
	ImageAnime       ImageStyle = "anime"
	ImageWatercolor  ImageStyle = "watercolor"
	ImageOilPainting ImageStyle = "oil painting"
	ImageCinematic   ImageStyle = "cinematic"
	Image3DRender    ImageStyle = "3d render"
)

// Defaults used when a caller does not pick a style.
const (
	DefaultVoiceStyle = VoiceNatural
	DefaultImageStyle = ImageDigitalArt
)

// VoiceStyles returns the closed set of voice styles in display order.
func VoiceStyles() []VoiceStyle {
	return []VoiceStyle{VoiceNatural, VoiceFriendly, VoiceProfessional, VoiceNewscast}
}

// ImageStyles returns the closed set of image styles in display order.
func ImageStyles() []ImageStyle {
	return []ImageStyle{ImageDigitalArt, ImageRealistic, ImageAnime, ImageWatercolor, ImageOilPainting, ImageCinematic, Image3DRender}
}

// Valid reports whether v belongs to the closed set of voice styles.
func (v VoiceStyle) Valid() bool {
	for _, s := range VoiceStyles() {
		if s == v {
			return true
		}
	}
	return false
}

// Valid reports whether i belongs to the closed set of image styles.
func (i ImageStyle) Valid() bool {
	for _, s := range ImageStyles() {
		if s == i {
			return true
		}
	}
	return false
}

// ValidationError describes why a GenerationRequest was rejected before a run
// was started.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// GenerationRequest is the immutable value sent to the generation service.
// The text is the source of the narration and, through its sentences, of the
// number of scenes the service renders.
type GenerationRequest struct {
	Text       string     `json:"text"`        // Required, non-empty.
	VoiceStyle VoiceStyle `json:"style"`       // Narration voice token.
	ImageStyle ImageStyle `json:"image_style"` // Scene style token.
}

// NewGenerationRequest builds a request, substituting the default tokens for
// empty styles.
//
// Inputs:
//   - text: The text to narrate and illustrate.
//   - voice: The voice style token; empty selects DefaultVoiceStyle.
//   - image: The image style token; empty selects DefaultImageStyle.
//
// Outputs:
//   - GenerationRequest: The request value. It is not validated.
func NewGenerationRequest(text string, voice VoiceStyle, image ImageStyle) GenerationRequest {
	if voice == "" {
		voice = DefaultVoiceStyle
	}
	if image == "" {
		image = DefaultImageStyle
	}
	return GenerationRequest{Text: text, VoiceStyle: voice, ImageStyle: image}
}

// Validate checks the request before a run is started. The controller relies
// on its callers to do this; it never validates on its own.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return &ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if !r.VoiceStyle.Valid() {
		return &ValidationError{Field: "style", Reason: fmt.Sprintf("unknown voice style %q", r.VoiceStyle)}
	}
	if !r.ImageStyle.Valid() {
		return &ValidationError{Field: "image_style", Reason: fmt.Sprintf("unknown image style %q", r.ImageStyle)}
	}
	return nil
}
