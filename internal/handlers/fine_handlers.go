package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"library_app_echo/internal/middleware"
	"library_app_echo/internal/models"
	"library_app_echo/internal/services"
)

// FineHandler serves member fine views, desk payment recording and the
// fine rule admin endpoints.
type FineHandler struct {
	fines *services.FineService
}

// NewFineHandler creates a new FineHandler
func NewFineHandler(fines *services.FineService) *FineHandler {
	return &FineHandler{fines: fines}
}

// MyFines lists the user's outstanding fines and their total
func (h *FineHandler) MyFines(c echo.Context) error {
	user := middleware.CurrentUser(c)

	unpaid, total, err := h.fines.ListUnpaid(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"unpaid_fines": unpaid,
		"unpaid_total": total,
	})
}

type recordPaymentRequest struct {
	Method models.PaymentMethod `json:"method"`
	Notes  string               `json:"notes"`
}

// RecordPayment marks a fine paid and writes the payment record
func (h *FineHandler) RecordPayment(c echo.Context) error {
	staff := middleware.CurrentUser(c)
	fineID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req recordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Method == "" {
		req.Method = models.PaymentMethodCash
	}

	payment, err := h.fines.RecordPayment(c.Request().Context(), fineID, staff.ID, req.Method, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payment)
}

// ListRules returns the fine rule table
func (h *FineHandler) ListRules(c echo.Context) error {
	rules, err := h.fines.Rules(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rules)
}

// CreateRule adds a fine rule
func (h *FineHandler) CreateRule(c echo.Context) error {
	var rule models.FineRule
	if err := c.Bind(&rule); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.fines.CreateRule(c.Request().Context(), &rule); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rule)
}

// DeleteRule removes a fine rule
func (h *FineHandler) DeleteRule(c echo.Context) error {
	ruleID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.fines.DeleteRule(c.Request().Context(), ruleID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}
