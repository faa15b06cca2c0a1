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

package timeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/opentracing/opentracing-go"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

// IDGenerator produces ids for instances created during one resolve. Ids
// are unique within the call and not meaningful across calls.
type IDGenerator interface {
	GenerateID() string
}

type idGenerator struct {
	next uint64
}

func (g *idGenerator) GenerateID() string {
	n := atomic.AddUint64(&g.next, 1)
	return fmt.Sprintf("@%d", n-1)
}

// Context carries the per-resolve ambience: a standard context, a logger,
// a tracer and the instance-id generator. Child contexts produced by Span
// share the generator, so ids stay unique across spans of one resolve.
type Context struct {
	context.Context
	id     uuid.UUID
	logger *logrus.Entry
	tracer opentracing.Tracer
	ids    *idGenerator
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithLogger sets the logger the resolve should use.
func WithLogger(logger *logrus.Entry) ContextOption {
	return func(ctx *Context) {
		ctx.logger = logger
	}
}

// WithTracer sets the tracer spans are started from.
func WithTracer(tracer opentracing.Tracer) ContextOption {
	return func(ctx *Context) {
		ctx.tracer = tracer
	}
}

// NewContext creates a Context from a standard context.
func NewContext(ctx context.Context, opts ...ContextOption) *Context {
	c := &Context{
		Context: ctx,
		id:      uuid.NewV4(),
		tracer:  opentracing.NoopTracer{},
		ids:     &idGenerator{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	c.logger = c.logger.WithField("resolve_id", c.id.String())

	return c
}

// NewEmptyContext returns a default context with no cancellation.
func NewEmptyContext() *Context {
	return NewContext(context.TODO())
}

// ID returns the unique id of this resolve context.
func (c *Context) ID() uuid.UUID {
	return c.id
}

// Logger returns the logger of this context.
func (c *Context) Logger() *logrus.Entry {
	return c.logger
}

// GenerateID implements IDGenerator.
func (c *Context) GenerateID() string {
	return c.ids.GenerateID()
}

// Span creates a new tracing span as a child of any span already in the
// context, and returns it along with a derived context carrying it.
func (c *Context) Span(opName string, opts ...opentracing.StartSpanOption) (opentracing.Span, *Context) {
	if parent := opentracing.SpanFromContext(c.Context); parent != nil {
		opts = append(opts, opentracing.ChildOf(parent.Context()))
	}
	span := c.tracer.StartSpan(opName, opts...)

	child := *c
	child.Context = opentracing.ContextWithSpan(c.Context, span)
	return span, &child
}
