package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"library_app_echo/internal/models"
	"library_app_echo/internal/services"
)

// Day offsets that trigger a notice, so the daily scan alerts each loan a
// fixed number of times instead of every run
var (
	dueSoonOffsets = map[int]bool{3: true, 1: true}
	overdueOffsets = map[int]bool{1: true, 7: true, 14: true}
)

// CirculationScanTaskDef is the recurring loan sweep: due-soon reminders
// and overdue notices. Overdue state itself stays derived; the scan only
// notifies.
type CirculationScanTaskDef struct {
	Notifications *services.NotificationService
}

// TaskID returns the unique identifier for this task
func (t *CirculationScanTaskDef) TaskID() string {
	return models.TaskCirculationScan
}

// HandleExecution walks all open loans once
func (t *CirculationScanTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	var loans []models.Loan
	err := db.Preload("BookCopy.Book").
		Where("status = ?", models.LoanStatusBorrowed).
		Find(&loans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch open loans: %w", err)
	}

	today := time.Now()
	dueSoon := 0
	overdue := 0

	for i := range loans {
		loan := &loans[i]
		title := loan.BookCopy.Book.Title

		if days := loan.DaysOverdue(today); days > 0 {
			if !overdueOffsets[days] {
				continue
			}
			message := fmt.Sprintf("Your loan of %q is %d days overdue. Please return it to avoid further fines.", title, days)
			if err := t.Notifications.Notify(db, loan.UserID, models.NotificationTypeOverdue, message); err != nil {
				log.Printf("Failed to notify user %d about overdue loan %d: %v", loan.UserID, loan.ID, err)
			} else {
				overdue++
			}
			continue
		}

		if days := loan.DaysUntilDue(today); dueSoonOffsets[days] {
			message := fmt.Sprintf("Your loan of %q is due in %d days.", title, days)
			if err := t.Notifications.Notify(db, loan.UserID, models.NotificationTypeDueSoon, message); err != nil {
				log.Printf("Failed to notify user %d about loan %d due soon: %v", loan.UserID, loan.ID, err)
			} else {
				dueSoon++
			}
		}
	}

	return map[string]interface{}{
		"status":        "success",
		"loans_scanned": len(loans),
		"due_soon_sent": dueSoon,
		"overdue_sent":  overdue,
	}, nil
}

// CirculationScanTask is the singleton instance of CirculationScanTaskDef
var CirculationScanTask = &CirculationScanTaskDef{}

// ExpireReservationsTaskDef expires notified reservations whose pickup
// window lapsed and advances each affected queue.
type ExpireReservationsTaskDef struct {
	Reservations *services.ReservationService
}

// TaskID returns the unique identifier for this task
func (t *ExpireReservationsTaskDef) TaskID() string {
	return models.TaskExpireReservations
}

// HandleExecution runs the expiry sweep
func (t *ExpireReservationsTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	expired, err := t.Reservations.ExpireLapsed(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"status":  "success",
		"expired": expired,
	}, nil
}

// ExpireReservationsTask is the singleton instance of ExpireReservationsTaskDef
var ExpireReservationsTask = &ExpireReservationsTaskDef{}
