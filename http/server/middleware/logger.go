package middleware

import (
	"time"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/projectdocs/http/server"
	"github.com/rise-and-shine/projectdocs/meta"
	"github.com/rise-and-shine/projectdocs/observability/logger"
)

// NewLoggerMW creates a middleware that writes one access log entry per
// request. 5xx responses are logged at error level, 4xx at warn and the rest
// at info. Failed requests carry the errx code, kind and details.
func NewLoggerMW(log logger.Logger) server.Middleware {
	log = log.Named("middleware.logger")

	return server.Middleware{
		Priority: 500,
		Handler: func(c *fiber.Ctx) error {
			start := time.Now()

			err := c.Next()

			status := c.Response().StatusCode()
			l := log.WithContext(c.UserContext()).
				With("http_method", c.Method()).
				With("http_route", c.Route().Path).
				With("http_path", c.Path()).
				With("http_status_code", status).
				With("duration", time.Since(start)).
				With("request_size", len(c.Body())).
				With("actor_id", c.Locals(meta.ActorID)).
				With("actor_role", c.Locals(meta.ActorRole))

			if err != nil {
				e := errx.AsErrorX(err)
				l = l.With("error", map[string]any{
					"code":    e.Code(),
					"type":    e.Type().String(),
					"message": e.Error(),
					"trace":   e.Trace(),
					"fields":  e.Fields(),
					"details": e.Details(),
				})
			}

			switch {
			case status >= fiber.StatusInternalServerError:
				l.Error("request failed")
			case status >= fiber.StatusBadRequest:
				l.Warn("request rejected")
			default:
				l.Info("request served")
			}

			return err
		},
	}
}
