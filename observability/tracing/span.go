package tracing

import (
	"context"

	"github.com/code19m/errx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/rise-and-shine/projectdocs"

// Start opens a span named op on the global tracer provider.
func Start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, op, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		e := errx.AsErrorX(err)
		span.RecordError(err)
		span.SetAttributes(
			attribute.String("error.code", e.Code()),
			attribute.String("error.type", e.Type().String()),
		)
		span.SetStatus(codes.Error, e.Code())
	}
	span.End()
}

// TraceID returns the id of the trace in ctx. Without a sampled span, as when
// tracing is disabled, it returns a random id prefixed "man-" so that log
// lines of one request still correlate.
func TraceID(ctx context.Context) string {
	if id := trace.SpanContextFromContext(ctx).TraceID(); id.IsValid() {
		return id.String()
	}
	return "man-" + uuid.NewString()
}
