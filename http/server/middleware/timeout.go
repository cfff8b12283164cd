package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/projectdocs/http/server"
)

// NewTimeoutMW bounds the request context by duration.
//
// The attach operations poll the record store within their own budgets, so
// duration should exceed the longest poll budget. Writes that must not be cut
// off halfway detach from this deadline themselves.
func NewTimeoutMW(duration time.Duration) server.Middleware {
	return server.Middleware{
		Priority: 800,
		Handler: func(c *fiber.Ctx) error {
			ctx, cancel := context.WithTimeout(c.UserContext(), duration)
			defer cancel()

			c.SetUserContext(ctx)

			err := c.Next()
			if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return errx.Wrap(err, errx.WithDetails(errx.D{"request_timeout": duration.String()}))
			}
			return err
		},
	}
}
