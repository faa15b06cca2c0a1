// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache persists resolved timelines between invocations, keyed by a
// hash of the input objects and options.
package cache

import (
	"sync"

	"github.com/mitchellh/hashstructure"

	"github.com/dolthub/supertimeline/timeline"
)

// Cache stores resolved timelines keyed by Key.
type Cache interface {
	// Get returns the resolved timeline stored under key, if any.
	Get(key uint64) (*timeline.ResolvedTimeline, bool)
	// Put stores the resolved timeline under key.
	Put(key uint64, resolved *timeline.ResolvedTimeline) error
	// Close releases any resources held by the cache.
	Close() error
}

// Key computes a stable cache key for a resolve call.
func Key(objects []timeline.TimelineObject, options timeline.ResolveOptions) (uint64, error) {
	return hashstructure.Hash(struct {
		Objects []timeline.TimelineObject
		Options timeline.ResolveOptions
	}{objects, options}, nil)
}

// Memory is an in-process Cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[uint64]*timeline.ResolvedTimeline
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[uint64]*timeline.ResolvedTimeline)}
}

// Get implements Cache.
func (m *Memory) Get(key uint64) (*timeline.ResolvedTimeline, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resolved, ok := m.entries[key]
	return resolved, ok
}

// Put implements Cache.
func (m *Memory) Put(key uint64, resolved *timeline.ResolvedTimeline) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = resolved
	return nil
}

// Close implements Cache.
func (m *Memory) Close() error {
	return nil
}
