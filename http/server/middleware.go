package server

import (
	"cmp"
	"slices"

	"github.com/gofiber/fiber/v2"
)

// Middleware is a Fiber handler with its place in the chain. A higher
// Priority runs earlier, so it wraps every middleware of lower priority.
type Middleware struct {
	Priority int
	Handler  fiber.Handler
}

// applyMiddlewares uses the middlewares on app by descending priority. Equal
// priorities keep their given order.
func applyMiddlewares(app *fiber.App, middlewares []Middleware) {
	sorted := slices.Clone(middlewares)
	slices.SortStableFunc(sorted, func(a, b Middleware) int {
		return cmp.Compare(b.Priority, a.Priority)
	})

	for _, mw := range sorted {
		if mw.Handler != nil {
			app.Use(mw.Handler)
		}
	}
}
