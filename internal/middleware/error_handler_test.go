package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library_app_echo/internal/services"
)

func invokeErrorHandler(t *testing.T, err error) (int, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	CustomErrorHandler(err, c)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body["error"]
}

func TestCustomErrorHandler(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedMsg  string
	}{
		{
			name:         "policy violation",
			err:          services.PolicyViolation("no copies available for borrowing"),
			expectedCode: http.StatusUnprocessableEntity,
			expectedMsg:  "no copies available for borrowing",
		},
		{
			name:         "not found",
			err:          services.NotFound("loan"),
			expectedCode: http.StatusNotFound,
			expectedMsg:  "loan not found",
		},
		{
			name:         "state conflict",
			err:          services.StateConflict("fine is already paid"),
			expectedCode: http.StatusConflict,
			expectedMsg:  "fine is already paid",
		},
		{
			name:         "invalid credentials",
			err:          services.ErrInvalidCredentials,
			expectedCode: http.StatusUnauthorized,
			expectedMsg:  "invalid email or password",
		},
		{
			name:         "echo http error",
			err:          echo.NewHTTPError(http.StatusForbidden, "You don't have permission to perform this action."),
			expectedCode: http.StatusForbidden,
			expectedMsg:  "You don't have permission to perform this action.",
		},
		{
			name:         "unknown error stays generic",
			err:          assert.AnError,
			expectedCode: http.StatusInternalServerError,
			expectedMsg:  "Something went wrong. Please try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := invokeErrorHandler(t, tt.err)
			assert.Equal(t, tt.expectedCode, code)
			assert.Equal(t, tt.expectedMsg, msg)
		})
	}
}
