package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sylvester-francis/sensu-api/core/ports"
)

// RequireBackends rejects requests with a 500 when either backend is
// unreachable. /info and /health stay reachable so operators can see why.
func RequireBackends(kv ports.Registry, transport ports.Transport) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if path == "/info" || path == "/health" {
				return next(c)
			}

			if !kv.Connected(c.Request().Context()) {
				return c.JSON(http.StatusInternalServerError, map[string]string{
					"error": "not connected to redis",
				})
			}
			if !transport.Connected() {
				return c.JSON(http.StatusInternalServerError, map[string]string{
					"error": "not connected to transport",
				})
			}

			return next(c)
		}
	}
}
