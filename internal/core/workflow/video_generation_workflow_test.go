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

package workflow_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jaycherian/gcp-go-video-generator/internal/cloud"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/model"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-video-generator/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, answer http.HandlerFunc) cor.Context {
	t.Helper()
	fake := test.NewFakeService(t, answer)
	wf := workflow.NewVideoGenerationWorkflow(&cloud.ServiceClients{Generator: fake.Generator()}, 0)

	ctx, span := tracer.Start(context.Background(), t.Name())
	defer span.End()

	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	chCtx.Add(cor.CtxIn, model.NewGenerationRequest("A cat sat. It purred.", model.VoiceProfessional, model.ImageCinematic))
	require.True(t, wf.IsExecutable(chCtx))
	wf.Execute(chCtx)
	chCtx.Close()
	if chCtx.HasErrors() {
		logger.InfoContext(ctx, "workflow ended with errors", "errors", chCtx.GetErrors())
	}
	return chCtx
}

func TestVideoGenerationWorkflowSuccess(t *testing.T) {
	chCtx := run(t, test.VideoAnswer(test.MP4Payload()))
	require.False(t, chCtx.HasErrors(), "%v", chCtx.GetErrors())

	payload, ok := chCtx.Get(cor.CtxIn).(*model.VideoPayload)
	require.True(t, ok)
	assert.Equal(t, test.MP4Payload(), payload.Data)
	assert.Equal(t, "video/mp4", payload.MIMEType)
}

func TestVideoGenerationWorkflowFailureStopsChain(t *testing.T) {
	chCtx := run(t, test.StatusAnswer(http.StatusInternalServerError))
	assert.True(t, chCtx.HasErrors())
	assert.Contains(t, chCtx.GetErrors(), "video-request")
	assert.NotContains(t, chCtx.GetErrors(), "video-payload-reader")
	assert.Nil(t, chCtx.Get(cor.CtxIn))
}
