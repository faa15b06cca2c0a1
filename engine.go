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

// Package supertimeline resolves declarative timelines: objects whose
// enable windows are symbolic expressions over other objects, classes and
// layers are turned into concrete time intervals and a per-layer state
// track.
package supertimeline

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"

	"github.com/dolthub/supertimeline/cache"
	"github.com/dolthub/supertimeline/timeline"
	"github.com/dolthub/supertimeline/timeline/resolver"
	"github.com/dolthub/supertimeline/timeline/state"
)

// Config for the Engine.
type Config struct {
	// Logger used for resolve logging. Defaults to the standard logger.
	Logger *logrus.Logger
	// Tracer for resolve spans. Defaults to a noop tracer.
	Tracer opentracing.Tracer
	// Cache, when set, persists resolved timelines between calls with
	// identical inputs.
	Cache cache.Cache
}

// Engine is a timeline resolver engine.
type Engine struct {
	logger *logrus.Logger
	tracer opentracing.Tracer
	cache  cache.Cache
}

// New creates a new Engine with custom configuration. To create an Engine
// with default settings use NewDefault.
func New(cfg *Config) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = opentracing.NoopTracer{}
	}

	return &Engine{
		logger: logger,
		tracer: tracer,
		cache:  cfg.Cache,
	}
}

// NewDefault creates a new default Engine.
func NewDefault() *Engine {
	return New(nil)
}

// NewContext creates a resolve context carrying the engine's logger and
// tracer.
func (e *Engine) NewContext(ctx context.Context) *timeline.Context {
	return timeline.NewContext(ctx,
		timeline.WithLogger(logrus.NewEntry(e.logger)),
		timeline.WithTracer(e.tracer),
	)
}

// Resolve computes the concrete instances of every object on the timeline.
// The produced ResolvedTimeline is immutable.
func (e *Engine) Resolve(ctx *timeline.Context, objects []timeline.TimelineObject, options timeline.ResolveOptions) (*timeline.ResolvedTimeline, error) {
	span, ctx := ctx.Span("timeline.resolve")
	defer span.Finish()

	var cacheKey uint64
	useCache := false
	if e.cache != nil {
		key, err := cache.Key(objects, options)
		if err != nil {
			ctx.Logger().WithError(err).Warn("could not compute resolve cache key")
		} else {
			cacheKey = key
			useCache = true
			if resolved, ok := e.cache.Get(key); ok {
				ctx.Logger().WithField("objects", len(objects)).Debug("resolve cache hit")
				return resolved, nil
			}
		}
	}

	resolved, err := resolver.ResolveTimeline(ctx, objects, options)
	if err != nil {
		return nil, err
	}

	ctx.Logger().WithFields(logrus.Fields{
		"objects": len(resolved.Objects),
		"layers":  len(resolved.Layers),
		"classes": len(resolved.Classes),
	}).Debug("timeline resolved")

	if useCache {
		if err := e.cache.Put(cacheKey, resolved); err != nil {
			ctx.Logger().WithError(err).Warn("could not store resolved timeline in cache")
		}
	}

	return resolved, nil
}

// ResolveAllStates flattens a resolved timeline into the per-layer state
// track and the next-event list. With onlyForTime set, only instances
// covering that time are composed.
func (e *Engine) ResolveAllStates(ctx *timeline.Context, resolved *timeline.ResolvedTimeline, onlyForTime *timeline.Time) (*state.ResolvedStates, error) {
	span, _ := ctx.Span("timeline.resolve_all_states")
	defer span.Finish()

	return state.ResolveAllStates(resolved, onlyForTime)
}

// GetState returns the state at a moment in time together with up to
// eventLimit upcoming events (0 means all).
func (e *Engine) GetState(states *state.ResolvedStates, time timeline.Time, eventLimit int) *state.TimelineState {
	return state.GetState(states, time, eventLimit)
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	if e.cache != nil {
		return e.cache.Close()
	}
	return nil
}
