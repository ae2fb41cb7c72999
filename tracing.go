package api

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/parcelkit/api"

type otelTracer struct {
	tracer trace.Tracer
}

// OTelTracer returns a SpanStarter backed by OpenTelemetry. A nil provider
// uses the global one. Spans of requests rejected by validation carry the
// number of violations and an error status.
func OTelTracer(tp trace.TracerProvider) SpanStarter {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &otelTracer{tracer: tp.Tracer(tracerName)}
}

func (t *otelTracer) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func()) {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, v))
	}

	ctx, span := t.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(kvs...),
	)

	return ctx, func() {
		if s := stateFrom(ctx); s != nil && s.violations > 0 {
			span.SetAttributes(attribute.Int("validation.violations", s.violations))
			span.SetStatus(codes.Error, "validation failed")
		}
		span.End()
	}
}
