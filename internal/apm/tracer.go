package apm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans for one instrumented component.
type Tracer interface {
	// Start opens a span as a child of whatever span the context carries.
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)

	// FromContext returns the span already carried by the context.
	FromContext(ctx context.Context) Span
}

// Span narrows trace.Span to the operations instrumented code needs.
type Span interface {
	SetAttributes(values ...attribute.KeyValue)
	AddEvent(name string, options ...trace.EventOption)
	RecordError(err error, options ...trace.EventOption)
	SetStatus(code codes.Code, description string)
	SpanContext() trace.SpanContext
	IsRecording() bool
	End(options ...trace.SpanEndOption)
}

type otelTracer struct {
	tracer trace.Tracer
}

// NewTracer returns a tracer bound to the global provider under the given
// instrumentation name. Before a provider is installed it produces no-op
// spans, so construction order does not matter.
func NewTracer(name string) Tracer {
	return &otelTracer{tracer: otel.Tracer(name)}
}

func (t *otelTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, opts...)
	return ctx, span
}

func (t *otelTracer) FromContext(ctx context.Context) Span {
	return trace.SpanFromContext(ctx)
}
