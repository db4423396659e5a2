// Package tracing opens child spans only under an active parent span, so
// unsampled routes and background helpers never produce orphan root spans.
package tracing

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var noopSpan = trace.SpanFromContext(context.Background())

type Tracer struct {
	tracer trace.Tracer
	allow  func(name string) bool
}

// New returns a tracer for scope. A nil allow admits every non-empty name.
func New(scope string, allow func(name string) bool) Tracer {
	return Tracer{tracer: otel.Tracer(scope), allow: allow}
}

// WithPrefix admits span names starting with prefix.
func WithPrefix(prefix string) func(string) bool {
	return func(name string) bool {
		return strings.HasPrefix(name, prefix)
	}
}

func (t Tracer) Allows(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	return t.allow == nil || t.allow(name)
}

func (t Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() || !t.Allows(name) {
		return ctx, noopSpan
	}
	if len(attrs) == 0 {
		return t.tracer.Start(ctx, name)
	}
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
