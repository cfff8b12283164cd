package middleware

import (
	"context"
	"time"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"

	"github.com/rise-and-shine/projectdocs/docerr"
	"github.com/rise-and-shine/projectdocs/http/server"
	"github.com/rise-and-shine/projectdocs/meta"
	"github.com/rise-and-shine/projectdocs/observability/alert"
	"github.com/rise-and-shine/projectdocs/observability/logger"
)

const alertSendTimeout = 3 * time.Second

// NewAlertingMW creates a middleware that reports internal errors of a request
// to the process wide alert provider. Client errors are not reported, and
// neither are manual intervention errors: the season mutator alerts those
// itself with the orphaned record id.
//
// The report is sent in the background so the response is not delayed.
func NewAlertingMW() server.Middleware {
	return server.Middleware{
		Priority: 600,
		Handler: func(c *fiber.Ctx) error {
			err := c.Next()
			if err == nil {
				return nil
			}

			e := errx.AsErrorX(err)
			if e.Type() != errx.T_Internal || errx.IsCodeIn(e, docerr.CodeManualIntervention) {
				return err
			}

			ctx := c.UserContext()
			operation := c.Method() + " " + c.Route().Path

			details := map[string]string{
				"error_trace": e.Trace(),
				"error_kind":  docerr.Kind(e),
				"actor_id":    cast.ToString(c.Locals(meta.ActorID)),
				"actor_role":  cast.ToString(c.Locals(meta.ActorRole)),
			}
			for k, v := range meta.ExtractMetaFromContext(ctx) {
				if v != "" {
					details[string(k)] = v
				}
			}

			sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertSendTimeout)
			go func() {
				defer cancel()

				if sendErr := alert.SendError(sendCtx, e.Code(), e.Error(), operation, details); sendErr != nil {
					logger.Named("http.alerting").
						WithContext(ctx).
						With("alert_error", sendErr.Error()).
						Warn("alert not sent")
				}
			}()

			return err
		},
	}
}
