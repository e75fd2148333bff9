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

// Package cloud provides components for interacting with the generation
// service and Google Cloud. This file initializes and holds every external
// client the application needs. It acts as a dependency injection container:
// one `ServiceClients` value is created at startup and passed to whatever
// needs a client.
//
// Logic Flow:
//  1. `NewCloudServiceClients` is called at application startup with the
//     loaded configuration.
//  2. It builds the generation service client and wraps it with the
//     configured quota.
//  3. When lifecycle events are enabled it creates the Pub/Sub client and the
//     event publisher.
//  4. `Close` releases everything in reverse order.
package cloud

import (
	"context"
	"fmt"
	"net/http"

	"cloud.google.com/go/pubsub"
)

// ServiceClients is a central container for the clients that talk to
// external services.
type ServiceClients struct {
	Generator    Generator       // The (quota-aware) generation service client.
	PubsubClient *pubsub.Client  // Nil unless lifecycle events are enabled.
	Events       *EventPublisher // Nil unless lifecycle events are enabled.
}

// Close gracefully shuts down the client connections.
func (c *ServiceClients) Close() {
	if c.Events != nil {
		c.Events.Stop()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
}

// NewCloudServiceClients initializes the clients required by config.
//
// Inputs:
//   - ctx: The root context for the application, used for the lifetime of the clients.
//   - config: A pointer to the loaded application configuration.
//   - transport: The base HTTP transport of the generation client; nil selects
//     the default transport.
//
// Outputs:
//   - *ServiceClients: The initialized clients.
//   - error: An error if any of the clients fail to initialize.
func NewCloudServiceClients(ctx context.Context, config *Config, transport http.RoundTripper) (*ServiceClients, error) {
	clients := &ServiceClients{
		Generator: NewQuotaAwareGenerator(
			NewGeneratorClient(config.Generator, transport),
			config.RateLimit.RequestsPerMinute,
		),
	}

	if !config.Events.Enabled {
		return clients, nil
	}

	pc, err := pubsub.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	clients.PubsubClient = pc
	clients.Events = NewEventPublisher(ctx, pc, config.Events.Topic)
	return clients, nil
}
