package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"library_app_echo/internal/models"
	"library_app_echo/internal/services"
)

const (
	// SessionCookie is the name of the session token cookie
	SessionCookie = "session"

	userContextKey  = "user"
	permsContextKey = "permissions"
)

// RequireAuth resolves the session cookie to a user and stores the user
// and its flattened permission set in the request context.
func RequireAuth(auth *services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue.")
			}

			user, err := auth.SessionUser(c.Request().Context(), cookie.Value)
			if err != nil {
				// Stale or forged token: clear it
				c.SetCookie(&http.Cookie{
					Name:     SessionCookie,
					Value:    "",
					MaxAge:   -1,
					HttpOnly: true,
					Path:     "/",
				})
				return echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue.")
			}

			c.Set(userContextKey, user)
			c.Set(permsContextKey, user.PermissionCodes())
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user, or nil outside RequireAuth
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}

// HasPermission reports whether the authenticated user holds the token
func HasPermission(c echo.Context, code string) bool {
	perms, _ := c.Get(permsContextKey).(map[string]bool)
	return perms[code]
}
