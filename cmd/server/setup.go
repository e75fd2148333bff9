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

// Package main contains the setup and initialization logic for the server's
// state. This file creates the centralized state manager holding the
// configuration, the external clients, the result store and the generation
// controller.
//
// Functions:
//   - SetupOS: Loads an optional .env file and points the configuration
//     loader at the server's files unless the environment already does.
//   - GetConfig: Loads the configuration once.
//   - InitState: Creates the clients, the workflow and the controller.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/jaycherian/gcp-go-video-generator/internal/cloud"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/services"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/workflow"
	"github.com/joho/godotenv"
)

// StateManager holds all the shared dependencies of the server.
type StateManager struct {
	config     *cloud.Config
	cloud      *cloud.ServiceClients
	store      *services.ResourceStore
	controller *services.GenerationController
}

var state = &StateManager{}

// SetupOS loads a .env file from the working directory, if present, and then
// sets the configuration directory and runtime environment variables when
// they are still unset. Variables already in the environment win.
func SetupOS() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	if _, ok := os.LookupEnv(cloud.EnvConfigFilePrefix); !ok {
		if err := os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if _, ok := os.LookupEnv(cloud.EnvConfigRuntime); !ok {
		return os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return nil
}

// GetConfig returns the configuration, loading it on the first call.
func GetConfig() (*cloud.Config, error) {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			return nil, fmt.Errorf("failed to setup environment: %w", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			return nil, err
		}
		state.config = config
	}
	return state.config, nil
}

// cadenceFromConfig converts the timeline section into a cadence.
func cadenceFromConfig(config *cloud.Config) services.TimelineCadence {
	return services.TimelineCadence{
		StageDelay: time.Duration(config.Timeline.StageDelayMs) * time.Millisecond,
		StepDelay:  time.Duration(config.Timeline.StepDelayMs) * time.Millisecond,
	}
}

// InitState initializes the server state.
//
// Inputs:
//   - ctx: The root context, used for the lifetime of the clients.
//
// This function performs the following steps:
//  1. Loads the configuration.
//  2. Creates the external clients.
//  3. Builds the generation workflow and the controller around it.
//  4. Registers the controller observers.
func InitState(ctx context.Context) error {
	config, err := GetConfig()
	if err != nil {
		return err
	}

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config, nil)
	if err != nil {
		return err
	}
	state.cloud = cloudClients

	state.store = services.NewResourceStore()
	network := workflow.NewVideoGenerationWorkflow(cloudClients, 0)
	state.controller = services.NewGenerationController(network, state.store, cadenceFromConfig(config))

	SetupObservers(state.controller, cloudClients)
	return nil
}
