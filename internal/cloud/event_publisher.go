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
// service and Google Cloud. This file defines the Pub/Sub publisher of
// generation lifecycle events.
//
// Logic Flow:
//  1. An EventPublisher is created for one topic.
//  2. Its Observe method is registered as a controller observer.
//  3. For every snapshot whose (run, status) pair differs from the last one
//     seen, a message carrying the snapshot as JSON is published. The
//     attributes `run_id` and `status` allow subscribers to filter.
//  4. Publishing never blocks the caller; results are checked in the
//     background and failures are logged.
package cloud

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Message attribute keys.
const (
	AttributeRunID  = "run_id"
	AttributeStatus = "status"
)

// EventPublisher publishes one Pub/Sub message per status change of a run.
type EventPublisher struct {
	ctx   context.Context
	topic *pubsub.Topic

	mu         sync.Mutex
	lastRunID  string
	lastStatus model.Status
	pending    sync.WaitGroup
}

// NewEventPublisher creates a publisher for topicID.
//
// Inputs:
//   - ctx: The context used for publishing; canceling it abandons pending messages.
//   - pubsubClient: An authenticated *pubsub.Client.
//   - topicID: The ID of the destination topic.
//
// Outputs:
//   - *EventPublisher: The publisher.
func NewEventPublisher(ctx context.Context, pubsubClient *pubsub.Client, topicID string) *EventPublisher {
	return &EventPublisher{
		ctx:   ctx,
		topic: pubsubClient.Topic(topicID),
	}
}

// Observe is a controller observer. Snapshots that do not change the status of
// the run are ignored, as are idle snapshots.
func (p *EventPublisher) Observe(snapshot model.Snapshot) {
	if snapshot.Status == model.StatusIdle {
		return
	}

	p.mu.Lock()
	if snapshot.RunID == p.lastRunID && snapshot.Status == p.lastStatus {
		p.mu.Unlock()
		return
	}
	p.lastRunID = snapshot.RunID
	p.lastStatus = snapshot.Status
	p.mu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("failed to encode lifecycle event", "run_id", snapshot.RunID, "error", err)
		return
	}

	tracer := otel.Tracer("event-publisher")
	spanCtx, span := tracer.Start(p.ctx, "publish-lifecycle-event")
	span.SetAttributes(
		attribute.String(AttributeRunID, snapshot.RunID),
		attribute.String(AttributeStatus, string(snapshot.Status)),
	)

	result := p.topic.Publish(spanCtx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			AttributeRunID:  snapshot.RunID,
			AttributeStatus: string(snapshot.Status),
		},
	})

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		defer span.End()
		id, err := result.Get(spanCtx)
		if err != nil {
			span.SetStatus(codes.Error, "publish failed")
			slog.Error("failed to publish lifecycle event", "run_id", snapshot.RunID, "status", snapshot.Status, "error", err)
			return
		}
		span.SetStatus(codes.Ok, "published")
		slog.Debug("published lifecycle event", "run_id", snapshot.RunID, "status", snapshot.Status, "message_id", id)
	}()
}

// Flush waits for every published message to be acknowledged or to fail.
func (p *EventPublisher) Flush() {
	p.pending.Wait()
}

// Stop flushes and stops the topic's background publishing.
func (p *EventPublisher) Stop() {
	p.Flush()
	p.topic.Stop()
}
