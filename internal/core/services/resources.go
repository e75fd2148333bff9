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
// This file holds the in-memory store behind result handles.
package services

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/model"
)

// ErrHandleNotFound is returned for unknown or released handles.
var ErrHandleNotFound = errors.New("resource handle not found")

// ResourceStore keeps generated videos addressable by handle until they are
// released. It is safe for concurrent use.
type ResourceStore struct {
	mu       sync.RWMutex
	payloads map[string]*model.VideoPayload
}

// NewResourceStore creates an empty store.
func NewResourceStore() *ResourceStore {
	return &ResourceStore{payloads: make(map[string]*model.VideoPayload)}
}

// Register stores payload and returns its handle.
func (s *ResourceStore) Register(payload *model.VideoPayload) model.ResourceHandle {
	id := uuid.NewString()
	s.mu.Lock()
	s.payloads[id] = payload
	s.mu.Unlock()
	return model.ResourceHandle{ID: id, MIMEType: payload.MIMEType, Size: payload.Size()}
}

// Open returns a reader over the payload of id. Each call returns an
// independent reader.
func (s *ResourceStore) Open(id string) (io.ReadSeeker, error) {
	s.mu.RLock()
	payload, ok := s.payloads[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrHandleNotFound
	}
	return bytes.NewReader(payload.Data), nil
}

// Release drops the payload of id. It reports whether id was present.
func (s *ResourceStore) Release(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.payloads[id]
	delete(s.payloads, id)
	return ok
}

// Len returns the number of live handles.
func (s *ResourceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payloads)
}
