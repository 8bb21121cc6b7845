package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// authRealm is sent on every authentication failure.
const authRealm = `Basic realm="Restricted Area"`

// BasicAuth enforces the shared API credential when one is configured.
// OPTIONS requests are never authenticated; preflights carry no
// credentials.
func BasicAuth(user, password string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if user == "" || password == "" {
			return next
		}

		return func(c echo.Context) error {
			if c.Request().Method == http.MethodOptions {
				return next(c)
			}

			u, p, ok := c.Request().BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
				subtle.ConstantTimeCompare([]byte(p), []byte(password)) != 1 {
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, authRealm)
				return c.NoContent(http.StatusUnauthorized)
			}

			return next(c)
		}
	}
}
