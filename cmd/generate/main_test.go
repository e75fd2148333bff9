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

package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-video-generator/internal/core/model"
	test "github.com/jaycherian/gcp-go-video-generator/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, fake *test.FakeService) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "generate.toml")
	content := "[generator]\nendpoint = \"" + fake.URL + test.GeneratePath + "\"\n" +
		"[timeline]\nstage_delay_ms = 1\nstep_delay_ms = 1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunWritesVideo(t *testing.T) {
	fake := test.NewFakeService(t, test.VideoAnswer(test.MP4Payload()))
	out := t.TempDir()

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-config", writeConfig(t, fake),
		"-text", "A cat sat. It purred.",
		"-voice", "friendly",
		"-out", out,
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	data, err := os.ReadFile(filepath.Join(out, "A_cat_sat.mp4"))
	require.NoError(t, err)
	assert.Equal(t, test.MP4Payload(), data)
	assert.Contains(t, stdout.String(), "Saved")

	requests := fake.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "friendly", string(requests[0].VoiceStyle))
}

func TestRunUsesTitleAndFile(t *testing.T) {
	fake := test.NewFakeService(t, test.VideoAnswer(test.MP4Payload()))
	out := t.TempDir()
	textFile := filepath.Join(t.TempDir(), "story.txt")
	require.NoError(t, os.WriteFile(textFile, []byte("Once upon a time. The end."), 0o600))

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-config", writeConfig(t, fake),
		"-file", textFile,
		"-title", "Bedtime: part 1",
		"-out", out,
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	_, err = os.Stat(filepath.Join(out, "Bedtime_part_1.mp4"))
	assert.NoError(t, err)
}

func TestRunReportsGenericFailure(t *testing.T) {
	fake := test.NewFakeService(t, test.StatusAnswer(http.StatusInternalServerError))

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-config", writeConfig(t, fake), "-text", "Hello.", "-out", t.TempDir()}, &stdout, &stderr)
	assert.EqualError(t, err, model.GenericFailureMessage)
}

func TestRunRejectsInvalidInput(t *testing.T) {
	fake := test.NewFakeService(t, test.VideoAnswer(test.MP4Payload()))
	config := writeConfig(t, fake)

	var stdout, stderr bytes.Buffer
	assert.Error(t, run(context.Background(), []string{"-config", config, "-text", "  "}, &stdout, &stderr))
	assert.Error(t, run(context.Background(), []string{"-config", config, "-text", "Hi.", "-voice", "whisper"}, &stdout, &stderr))
	assert.Empty(t, fake.Requests())
}

func TestProgressPrinterSkipsRepeats(t *testing.T) {
	var buf bytes.Buffer
	p := &progressPrinter{w: &buf}
	stage, pct := "Generating images...", 25.0
	snap := model.Snapshot{Status: model.StatusGenerating, Stage: &stage, Progress: &pct}

	p.observe(snap)
	p.observe(snap)
	assert.Equal(t, "[ 25%] Generating images...\n", buf.String())
}
