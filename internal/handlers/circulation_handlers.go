package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"library_app_echo/internal/middleware"
	"library_app_echo/internal/models"
	"library_app_echo/internal/services"
)

// CirculationHandler serves borrow/return/extend for members and the
// staff circulation desk.
type CirculationHandler struct {
	circulation *services.CirculationService
}

// NewCirculationHandler creates a new CirculationHandler
func NewCirculationHandler(circulation *services.CirculationService) *CirculationHandler {
	return &CirculationHandler{circulation: circulation}
}

// MyLoans lists the authenticated user's open loans and history
func (h *CirculationHandler) MyLoans(c echo.Context) error {
	user := middleware.CurrentUser(c)

	current, history, err := h.circulation.ListUserLoans(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}

	today := time.Now()
	type loanView struct {
		models.Loan
		IsOverdue    bool `json:"is_overdue"`
		DaysOverdue  int  `json:"days_overdue"`
		DaysUntilDue int  `json:"days_until_due"`
		DueSoon      bool `json:"due_soon"`
	}
	views := make([]loanView, 0, len(current))
	overdueCount := 0
	for _, loan := range current {
		v := loanView{
			Loan:         loan,
			IsOverdue:    loan.IsOverdue(today),
			DaysOverdue:  loan.DaysOverdue(today),
			DaysUntilDue: loan.DaysUntilDue(today),
		}
		v.DueSoon = !v.IsOverdue && v.DaysUntilDue <= 3
		if v.IsOverdue {
			overdueCount++
		}
		views = append(views, v)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"current_loans": views,
		"loan_history":  history,
		"stats": map[string]interface{}{
			"current_loans": len(current),
			"overdue_loans": overdueCount,
			"total_loans":   len(current) + len(history),
		},
	})
}

// BorrowBook checks out the first available copy of a book
func (h *CirculationHandler) BorrowBook(c echo.Context) error {
	user := middleware.CurrentUser(c)
	bookID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	loan, err := h.circulation.Borrow(c.Request().Context(), user.ID, bookID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, loan)
}

// ReturnLoan returns the authenticated user's own loan
func (h *CirculationHandler) ReturnLoan(c echo.Context) error {
	user := middleware.CurrentUser(c)
	loanID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	loan, err := h.circulation.GetLoan(c.Request().Context(), loanID)
	if err != nil {
		return err
	}
	if loan.UserID != user.ID {
		return services.NotFound("loan")
	}

	returned, fine, err := h.circulation.Return(c.Request().Context(), loanID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"loan": returned,
		"fine": fine,
	})
}

// ExtendLoan postpones the due date of the user's own loan
func (h *CirculationHandler) ExtendLoan(c echo.Context) error {
	user := middleware.CurrentUser(c)
	loanID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	loan, err := h.circulation.Extend(c.Request().Context(), user.ID, loanID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loan)
}

// ManageLoans lists all open loans by due date for staff
func (h *CirculationHandler) ManageLoans(c echo.Context) error {
	loans, overdue, err := h.circulation.ListActiveLoans(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"loans":          loans,
		"total_borrowed": len(loans),
		"overdue_count":  overdue,
	})
}

// StaffReturnLoan records a return on behalf of a member
func (h *CirculationHandler) StaffReturnLoan(c echo.Context) error {
	loanID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	loan, fine, err := h.circulation.Return(c.Request().Context(), loanID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"loan": loan,
		"fine": fine,
	})
}

type borrowCopyRequest struct {
	UserID uint `json:"user_id"`
}

// StaffBorrowCopy checks out a scanned copy to a member at the desk
func (h *CirculationHandler) StaffBorrowCopy(c echo.Context) error {
	copyID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req borrowCopyRequest
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	loan, err := h.circulation.BorrowCopy(c.Request().Context(), req.UserID, copyID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, loan)
}

type markConditionRequest struct {
	Condition models.CopyCondition `json:"condition"`
	Notes     string               `json:"notes"`
}

// MarkCopyCondition records a condition change; lost/damaged copies on
// loan trigger the flat replacement fine.
func (h *CirculationHandler) MarkCopyCondition(c echo.Context) error {
	copyID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req markConditionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	switch req.Condition {
	case models.CopyConditionGood, models.CopyConditionDamaged, models.CopyConditionLost:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid condition")
	}

	fine, err := h.circulation.MarkCopyCondition(c.Request().Context(), copyID, req.Condition, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "updated",
		"fine":   fine,
	})
}
