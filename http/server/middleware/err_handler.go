package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/projectdocs/http/server"
)

// NewErrorHandlerMW creates the innermost middleware, which writes the error
// of a handler as the JSON error response. The error is still returned so
// that the logger and alerting middlewares see it.
func NewErrorHandlerMW(hideDetails bool) server.Middleware {
	return server.Middleware{
		Priority: 400,
		Handler: func(c *fiber.Ctx) error {
			err := c.Next()
			if err == nil || c.Response().StatusCode() >= fiber.StatusBadRequest {
				return err
			}
			return server.WriteErrorResponse(c, err, hideDetails)
		},
	}
}
