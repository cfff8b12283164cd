package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/projectdocs/http/server"
	"github.com/rise-and-shine/projectdocs/meta"
	"github.com/rise-and-shine/projectdocs/observability/tracing"
)

// Actor headers set by the authentication gateway in front of the service.
const (
	HeaderActorID   = "X-Actor-Id"
	HeaderActorRole = "X-Actor-Role"
)

// NewMetaInjectMW creates a middleware that injects request metadata into the
// request context.
//
// The actor id and role are taken from the gateway headers as they are, they
// are checked by the permission gate, not here. They are also stored in the
// Fiber locals for the logger and alerting middlewares.
func NewMetaInjectMW(serviceName, serviceVersion string) server.Middleware {
	return server.Middleware{
		Priority: 700,
		Handler: func(c *fiber.Ctx) error {
			ctx := c.UserContext()

			traceID := meta.Find(ctx, meta.TraceID)
			if traceID == "" {
				traceID = tracing.TraceID(ctx)
			}

			actorID := strings.TrimSpace(c.Get(HeaderActorID))
			actorRole := strings.ToLower(strings.TrimSpace(c.Get(HeaderActorRole)))

			ctx = meta.InjectMetaToContext(ctx, map[meta.ContextKey]string{
				meta.TraceID:        traceID,
				meta.IPAddress:      c.IP(),
				meta.UserAgent:      c.Get(fiber.HeaderUserAgent),
				meta.ServiceName:    serviceName,
				meta.ServiceVersion: serviceVersion,
				meta.ActorID:        actorID,
				meta.ActorRole:      actorRole,
			})
			c.SetUserContext(ctx)

			c.Locals(meta.ActorID, actorID)
			c.Locals(meta.ActorRole, actorRole)

			return c.Next()
		},
	}
}
