package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"library_app_echo/internal/middleware"
	"library_app_echo/internal/models"
	"library_app_echo/internal/services"
)

// ReservationHandler serves the reservation queue endpoints
type ReservationHandler struct {
	reservations *services.ReservationService
}

// NewReservationHandler creates a new ReservationHandler
func NewReservationHandler(reservations *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

// MyReservations lists the user's active queue entries and history
func (h *ReservationHandler) MyReservations(c echo.Context) error {
	user := middleware.CurrentUser(c)

	active, past, err := h.reservations.ListForUser(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}

	type reservationView struct {
		models.Reservation
		Ready bool `json:"ready"`
	}
	views := make([]reservationView, 0, len(active))
	for i := range active {
		ready, err := h.reservations.IsReady(c.Request().Context(), &active[i])
		if err != nil {
			return err
		}
		views = append(views, reservationView{Reservation: active[i], Ready: ready})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"active_reservations": views,
		"past_reservations":   past,
	})
}

// ReserveBook joins the book's pickup queue
func (h *ReservationHandler) ReserveBook(c echo.Context) error {
	user := middleware.CurrentUser(c)
	bookID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	reservation, err := h.reservations.Reserve(c.Request().Context(), user.ID, bookID, models.ReservationTypeRegular)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, reservation)
}

// CancelReservation withdraws the user's own reservation
func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	user := middleware.CurrentUser(c)
	reservationID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.reservations.Cancel(c.Request().Context(), user.ID, reservationID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "cancelled"})
}

type priorityReserveRequest struct {
	UserID uint `json:"user_id"`
}

// StaffPriorityReserve inserts a member at the front of the queue,
// shifting everyone else down one position.
func (h *ReservationHandler) StaffPriorityReserve(c echo.Context) error {
	bookID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req priorityReserveRequest
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	reservation, err := h.reservations.Reserve(c.Request().Context(), req.UserID, bookID, models.ReservationTypePriority)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, reservation)
}
