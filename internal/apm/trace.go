package apm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans wrapped as Span.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, Span)
}

type otelTracer struct {
	tracer trace.Tracer
}

// NewTracer returns a tracer bound to the global provider, so spans follow
// whatever NewTraceProvider installs later.
func NewTracer(name string) Tracer {
	return NewTracerFrom(otel.GetTracerProvider(), name)
}

// NewTracerFrom returns a tracer from tp.
func NewTracerFrom(tp trace.TracerProvider, name string) Tracer {
	return &otelTracer{tracer: tp.Tracer(name)}
}

func (t *otelTracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, &traceSpan{span: span}
}
