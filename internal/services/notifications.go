package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"library_app_echo/internal/models"
)

// NotificationService persists user notifications and queues their
// delivery. The notification row is the in-app inbox; e-mail delivery
// runs through a scheduled task so a mail outage never fails the
// circulation operation that triggered the notice.
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a NotificationService
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Notify records a notification for the user and schedules its delivery.
// tx may be an open transaction so the notification commits atomically
// with the operation that caused it.
func (s *NotificationService) Notify(tx *gorm.DB, userID uint, ntype models.NotificationType, message string) error {
	if tx == nil {
		tx = s.db
	}

	notif := models.UserNotification{
		UserID:  userID,
		Type:    ntype,
		Message: message,
		SentAt:  time.Now(),
	}
	if err := tx.Create(&notif).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	task := models.ScheduledTask{
		TaskName: models.TaskSendNotification,
		Arguments: map[string]interface{}{
			"notification_id": notif.ID,
			"user_id":         userID,
			"subject":         subjectFor(ntype),
		},
		Due:        time.Now(),
		Status:     models.ScheduledTaskStatusActive,
		TaskType:   models.ScheduledTaskTypeOneTime,
		MaxAttempt: 3,
	}
	if err := tx.Create(&task).Error; err != nil {
		return fmt.Errorf("failed to schedule notification delivery: %w", err)
	}

	return nil
}

func subjectFor(ntype models.NotificationType) string {
	switch ntype {
	case models.NotificationTypeDueSoon:
		return "Loan due soon"
	case models.NotificationTypeOverdue:
		return "Loan overdue"
	case models.NotificationTypeReservationReady:
		return "Reserved book ready for pickup"
	case models.NotificationTypeFineNotice:
		return "Fine notice"
	case models.NotificationTypeMembershipExpiry:
		return "Membership expiring"
	default:
		return "Library notice"
	}
}
