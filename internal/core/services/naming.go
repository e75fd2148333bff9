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

// Package services contains the business logic of the generation client.
// This file derives titles and download file names from user input.
package services

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultTitleLength is the rune limit of a title derived from the text.
	DefaultTitleLength = 50
	// MaxTitleLength is the rune limit of a title supplied by the user.
	MaxTitleLength = 100
	// FallbackStem replaces a title that sanitizes to nothing.
	FallbackStem = "generated_video"
	// DownloadExtension is appended to every download name.
	DownloadExtension = ".mp4"
)

// isSentenceEnd reports whether r terminates a sentence-like segment.
func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// SentenceSegments splits text on sentence-terminating punctuation and
// returns the trimmed, non-empty segments.
func SentenceSegments(text string) []string {
	parts := strings.FieldsFunc(text, isSentenceEnd)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DefaultTitle returns the first sentence of text, truncated to
// DefaultTitleLength runes. It returns "" when text has no sentence.
//
// Example: "A cat sat. It purred." -> "A cat sat".
func DefaultTitle(text string) string {
	segments := SentenceSegments(text)
	if len(segments) == 0 {
		return ""
	}
	return truncateRunes(segments[0], DefaultTitleLength)
}

// ResolveTitle returns the user's title, trimmed and capped at MaxTitleLength
// runes, or the fallback when the user gave none.
func ResolveTitle(userTitle string, fallback string) string {
	if t := strings.TrimSpace(userTitle); t != "" {
		return truncateRunes(t, MaxTitleLength)
	}
	return fallback
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}

// DeriveDownloadName converts a title into a filesystem-safe file name:
// every character outside [A-Za-z0-9] becomes an underscore, runs of
// underscores collapse into one, leading and trailing underscores are
// removed, an empty stem becomes FallbackStem and ".mp4" is appended.
// The result always matches ^[A-Za-z0-9_]+\.mp4$.
func DeriveDownloadName(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	pending := false
	for _, r := range title {
		if isAlphaNumeric(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}

	stem := b.String()
	if stem == "" {
		stem = FallbackStem
	}
	return stem + DownloadExtension
}

func isAlphaNumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
