package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestToErrorX(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType errx.Type
		wantCode string
	}{
		{"unknown route", fiber.ErrNotFound, errx.T_NotFound, codeRouterError},
		{"body too large", fiber.ErrRequestEntityTooLarge, errx.T_Validation, codeRouterError},
		{"bad gateway", fiber.ErrBadGateway, errx.T_Internal, codeRouterError},
		{"errx kept", errx.New("in use", errx.WithCode("CHOICE_IN_USE"), errx.WithType(errx.T_Conflict)), errx.T_Conflict, "CHOICE_IN_USE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := toErrorX(tc.err)
			assert.Equal(t, tc.wantType, e.Type())
			assert.Equal(t, tc.wantCode, e.Code())
		})
	}
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, fiber.StatusForbidden, statusOf(errx.T_Forbidden))
	assert.Equal(t, fiber.StatusConflict, statusOf(errx.T_Conflict))
	assert.Equal(t, fiber.StatusInternalServerError, statusOf(errx.T_Internal))
}

func TestMiddlewareOrder(t *testing.T) {
	var order []int
	mw := func(p int) Middleware {
		return Middleware{Priority: p, Handler: func(c *fiber.Ctx) error {
			order = append(order, p)
			return c.Next()
		}}
	}

	srv := NewHTTPServer(Config{Host: "localhost", Port: 1}, []Middleware{mw(400), mw(1000), mw(700), {Priority: 900}})
	srv.RegisterRouter(func(r fiber.Router) {
		r.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	})

	resp, err := srv.App().Test(httptestRequest(), -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []int{1000, 700, 400}, order)
}

func httptestRequest() *http.Request {
	return httptest.NewRequest(http.MethodGet, "/", nil)
}
