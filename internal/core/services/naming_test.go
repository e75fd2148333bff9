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

package services_test

import (
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jaycherian/gcp-go-video-generator/internal/core/services"
	"github.com/stretchr/testify/assert"
)

var downloadNamePattern = regexp.MustCompile(`^[A-Za-z0-9]+(_[A-Za-z0-9]+)*\.mp4$`)

func TestDeriveDownloadName(t *testing.T) {
	cases := map[string]string{
		"A cat sat":              "A_cat_sat.mp4",
		"  Hello, World!!  ":     "Hello_World.mp4",
		"__a__b__":               "a_b.mp4",
		"Video 2024: v2.0":       "Video_2024_v2_0.mp4",
		"café au lait":           "caf_au_lait.mp4",
		"":                       "generated_video.mp4",
		"!!!":                    "generated_video.mp4",
		"日本語":                    "generated_video.mp4",
		"tab\tand\nnewline":      "tab_and_newline.mp4",
		"already_safe_name":      "already_safe_name.mp4",
		"dots...and---dashes***": "dots_and_dashes.mp4",
	}
	for in, want := range cases {
		assert.Equal(t, want, services.DeriveDownloadName(in), "input %q", in)
	}
}

func TestDeriveDownloadNameIsSafeAndStable(t *testing.T) {
	inputs := []string{
		"", " ", "_", "a", "A cat sat. It purred.", "../../etc/passwd", "C:\\Windows\\system32",
		"emoji 🎬 title", strings.Repeat("x_", 200), "mixed CASE 123", "\x00\x01control",
	}
	for _, in := range inputs {
		first := services.DeriveDownloadName(in)
		assert.Regexp(t, downloadNamePattern, first, "input %q", in)
		assert.NotContains(t, first, "__")
		assert.Equal(t, first, services.DeriveDownloadName(in))
	}
}

func TestDefaultTitle(t *testing.T) {
	assert.Equal(t, "A cat sat", services.DefaultTitle("A cat sat. It purred."))
	assert.Equal(t, "Hi", services.DefaultTitle("...Hi"))
	assert.Equal(t, "Where", services.DefaultTitle("Where? There!"))
	assert.Equal(t, "", services.DefaultTitle(""))
	assert.Equal(t, "", services.DefaultTitle(" . ! ?"))

	long := strings.Repeat("word ", 40)
	title := services.DefaultTitle(long)
	assert.LessOrEqual(t, utf8.RuneCountInString(title), services.DefaultTitleLength)
	assert.True(t, strings.HasPrefix(long, title))

	wide := strings.Repeat("é", 80)
	assert.Equal(t, services.DefaultTitleLength, utf8.RuneCountInString(services.DefaultTitle(wide)))
}

func TestResolveTitle(t *testing.T) {
	assert.Equal(t, "fallback", services.ResolveTitle("", "fallback"))
	assert.Equal(t, "fallback", services.ResolveTitle("   ", "fallback"))
	assert.Equal(t, "Mine", services.ResolveTitle("  Mine ", "fallback"))

	capped := services.ResolveTitle(strings.Repeat("a", 150), "fallback")
	assert.Equal(t, services.MaxTitleLength, utf8.RuneCountInString(capped))
}

func TestSentenceSegments(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, services.SentenceSegments("A. B! C? "))
	assert.Equal(t, []string{"One sentence without end"}, services.SentenceSegments("One sentence without end"))
	assert.Empty(t, services.SentenceSegments("...!?"))
	assert.Empty(t, services.SentenceSegments(""))
	assert.Len(t, services.SentenceSegments("Wait... what?! Yes."), 3)
}
