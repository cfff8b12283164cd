package server

import (
	"errors"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/projectdocs/docerr"
	"github.com/rise-and-shine/projectdocs/meta"
)

// codeRouterError marks errors raised by Fiber itself, such as an unknown
// route or an oversized body.
const codeRouterError = "ROUTER_ERROR"

//nolint:gochecknoglobals // static lookup
var statusByType = map[errx.Type]int{
	errx.T_Validation:     fiber.StatusBadRequest,
	errx.T_Authentication: fiber.StatusUnauthorized,
	errx.T_Forbidden:      fiber.StatusForbidden,
	errx.T_NotFound:       fiber.StatusNotFound,
	errx.T_Conflict:       fiber.StatusConflict,
	errx.T_Throttling:     fiber.StatusTooManyRequests,
}

// errorBody is the JSON error response:
//
//	{"trace_id": "...", "error": {"code": "CHOICE_IN_USE", "kind": "Conflict", "message": "..."}}
//
// Messages of the record store pass through verbatim. Trace and details are
// left out when details are hidden.
type errorBody struct {
	Code    string            `json:"code"`
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Trace   string            `json:"trace,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Details map[string]any    `json:"details,omitempty"`
}

// WriteErrorResponse writes err as the JSON error response with the HTTP
// status of its errx type and returns err as an errx error.
func WriteErrorResponse(c *fiber.Ctx, err error, hideDetails bool) error {
	e := toErrorX(err)

	body := errorBody{
		Code:    e.Code(),
		Kind:    docerr.Kind(e),
		Message: e.Error(),
		Fields:  e.Fields(),
	}
	if !hideDetails {
		body.Trace = e.Trace()
		body.Details = e.Details()
	}

	_ = c.Status(statusOf(e.Type())).JSON(fiber.Map{
		"trace_id": meta.Find(c.UserContext(), meta.TraceID),
		"error":    body,
	})
	return e
}

// customErrorHandler is the Fiber error handler. It leaves responses that
// already carry an error status alone.
func customErrorHandler(hideDetails bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if c.Response().StatusCode() >= fiber.StatusBadRequest {
			return nil
		}
		_ = WriteErrorResponse(c, err, hideDetails)
		return nil
	}
}

func statusOf(t errx.Type) int {
	if status, ok := statusByType[t]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// toErrorX converts err to errx. Fiber errors keep their status through the
// matching errx type.
func toErrorX(err error) errx.ErrorX {
	var fe *fiber.Error
	if !errors.As(err, &fe) {
		return errx.AsErrorX(err)
	}

	t := errx.T_Internal
	for typ, status := range statusByType {
		if status == fe.Code {
			t = typ
			break
		}
	}
	if t == errx.T_Internal && fe.Code >= fiber.StatusBadRequest && fe.Code < fiber.StatusInternalServerError {
		t = errx.T_Validation
	}

	return errx.AsErrorX(errx.New(fe.Message,
		errx.WithCode(codeRouterError),
		errx.WithType(t),
		errx.WithDetails(errx.D{"fiber_code": fe.Code}),
	))
}
