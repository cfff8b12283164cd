package middleware

import (
	"runtime"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/projectdocs/docerr"
	"github.com/rise-and-shine/projectdocs/http/server"
	"github.com/rise-and-shine/projectdocs/meta"
	"github.com/rise-and-shine/projectdocs/observability/logger"
)

const stackTraceSize = 4 << 10

// NewRecoveryMW creates a middleware that turns a panic in a handler into an
// internal error carrying the stack trace, the route and the project id of
// the request.
func NewRecoveryMW(log logger.Logger) server.Middleware {
	return server.Middleware{
		Priority: 1000,
		Handler: func(c *fiber.Ctx) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				stack := make([]byte, stackTraceSize)
				stack = stack[:runtime.Stack(stack, false)]

				details := errx.D{
					"panic_message": r,
					"route":         c.Route().Path,
					"record_id":     meta.Find(c.UserContext(), meta.RecordID),
				}

				log.Named("middleware.recovery").
					WithContext(c.UserContext()).
					With("stack_trace", string(stack)).
					With("details", details).
					Error("recovered from panic")

				details["stack_trace"] = string(stack)
				err = errx.New("panic recovered",
					errx.WithCode(docerr.CodeUpstream),
					errx.WithType(errx.T_Internal),
					errx.WithDetails(details),
				)
			}()

			return c.Next()
		},
	}
}
