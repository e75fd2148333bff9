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
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-video-generator/internal/cloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inDir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestSetupOSReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GCP_RUNTIME=prod\n"), 0o600))
	inDir(t, dir)
	unset(t, cloud.EnvConfigRuntime)
	unset(t, cloud.EnvConfigFilePrefix)

	require.NoError(t, SetupOS())
	assert.Equal(t, "prod", os.Getenv(cloud.EnvConfigRuntime))
	assert.Equal(t, "configs", os.Getenv(cloud.EnvConfigFilePrefix))
}

func TestSetupOSKeepsEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GCP_RUNTIME=prod\n"), 0o600))
	inDir(t, dir)
	t.Setenv(cloud.EnvConfigRuntime, "test")
	t.Setenv(cloud.EnvConfigFilePrefix, "elsewhere")

	require.NoError(t, SetupOS())
	assert.Equal(t, "test", os.Getenv(cloud.EnvConfigRuntime))
	assert.Equal(t, "elsewhere", os.Getenv(cloud.EnvConfigFilePrefix))
}

func TestSetupOSWithoutDotEnv(t *testing.T) {
	inDir(t, t.TempDir())
	unset(t, cloud.EnvConfigRuntime)
	unset(t, cloud.EnvConfigFilePrefix)

	require.NoError(t, SetupOS())
	assert.Equal(t, "local", os.Getenv(cloud.EnvConfigRuntime))
}

func TestCadenceFromConfig(t *testing.T) {
	config := cloud.NewConfig()
	cadence := cadenceFromConfig(config)
	assert.Equal(t, int64(1000), cadence.StageDelay.Milliseconds())
	assert.Equal(t, int64(500), cadence.StepDelay.Milliseconds())
}
