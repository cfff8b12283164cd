package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.23.1"
	"go.opentelemetry.io/otel/trace"

	"github.com/rise-and-shine/projectdocs/http/server"
	"github.com/rise-and-shine/projectdocs/meta"
	"github.com/rise-and-shine/projectdocs/observability/tracing"
)

// HeaderTraceID carries the trace id of the request back to the caller.
const HeaderTraceID = "X-Trace-ID"

// NewTracingMW creates a middleware that opens the server span of a request.
// The span is renamed after the matched route once the handler has run, and
// the trace id is put into the request metadata and the response headers.
func NewTracingMW() server.Middleware {
	return server.Middleware{
		Priority: 900,
		Handler: func(c *fiber.Ctx) error {
			ctx, span := otel.Tracer("github.com/rise-and-shine/projectdocs/http").Start(
				c.UserContext(),
				c.Method()+" "+c.Path(),
				trace.WithSpanKind(trace.SpanKindServer),
			)
			defer span.End()

			traceID := tracing.TraceID(ctx)
			ctx = meta.InjectMetaToContext(ctx, map[meta.ContextKey]string{meta.TraceID: traceID})
			c.SetUserContext(ctx)
			c.Set(HeaderTraceID, traceID)

			err := c.Next()

			route := c.Route().Path
			if route != "" && route != "/" {
				span.SetName(c.Method() + " " + route)
			}
			span.SetAttributes(
				semconv.HTTPMethodKey.String(c.Method()),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPURLKey.String(c.OriginalURL()),
				semconv.HTTPStatusCodeKey.Int(c.Response().StatusCode()),
			)

			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return err
		},
	}
}
