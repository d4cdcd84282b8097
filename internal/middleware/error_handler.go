package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"library_app_echo/internal/services"
)

// CustomErrorHandler maps service errors to JSON rejections. Policy
// violations, missing records and state conflicts are expected outcomes
// surfaced with their reason; anything else is a 500 with a generic body.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Something went wrong. Please try again later."

	var policyErr *services.PolicyViolationError
	var notFoundErr *services.NotFoundError
	var conflictErr *services.StateConflictError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &policyErr):
		code = http.StatusUnprocessableEntity
		message = policyErr.Reason
	case errors.As(err, &notFoundErr):
		code = http.StatusNotFound
		message = notFoundErr.Error()
	case errors.As(err, &conflictErr):
		code = http.StatusConflict
		message = conflictErr.Reason
	case errors.Is(err, services.ErrInvalidCredentials):
		code = http.StatusUnauthorized
		message = services.ErrInvalidCredentials.Error()
	case errors.As(err, &httpErr):
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok && msg != "" {
			message = msg
		} else {
			message = http.StatusText(code)
		}
	default:
		c.Logger().Error(err)
	}

	if err := c.JSON(code, map[string]string{"error": message}); err != nil {
		c.Logger().Error(err)
	}
}
