package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequirePermission gates a route on a capability token. Runs after
// RequireAuth; an actor without the token gets a 403 rejection.
func RequirePermission(code string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !HasPermission(c, code) {
				return echo.NewHTTPError(http.StatusForbidden, "You don't have permission to perform this action.")
			}
			return next(c)
		}
	}
}
