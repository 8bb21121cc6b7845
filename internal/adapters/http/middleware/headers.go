package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// corsHeaderPrefix prefixes every configured CORS map key.
const corsHeaderPrefix = "Access-Control-Allow-"

// ResponseHeaders stamps the JSON content type and the configured
// Access-Control-Allow-* headers onto every response, and answers OPTIONS
// preflight requests directly with an empty 200.
func ResponseHeaders(cors map[string]string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			for key, value := range cors {
				h.Set(corsHeaderPrefix+key, value)
			}

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}

			return next(c)
		}
	}
}
