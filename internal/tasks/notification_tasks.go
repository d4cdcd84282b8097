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

// SendNotificationTaskDef delivers a persisted notification by e-mail.
// Delivery failures reschedule the task until the attempt budget runs out.
type SendNotificationTaskDef struct {
	Email *services.EmailService
}

// TaskID returns the unique identifier for this task
func (t *SendNotificationTaskDef) TaskID() string {
	return models.TaskSendNotification
}

// HandleExecution looks up the notification and its recipient and sends
// the e-mail. Users without an address are skipped, not failed.
func (t *SendNotificationTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	notifID, ok := uintArg(task.Arguments, "notification_id")
	if !ok {
		return nil, fmt.Errorf("notification_id not provided or invalid")
	}

	var notif models.UserNotification
	if err := db.Preload("User").First(&notif, notifID).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch notification: %w", err)
	}

	if notif.User.Email == "" {
		log.Printf("Skipping delivery of notification %d: user %d has no email", notif.ID, notif.UserID)
		return map[string]interface{}{"status": "skipped", "reason": "no email address"}, nil
	}

	subject, _ := task.Arguments["subject"].(string)
	if subject == "" {
		subject = "Library notice"
	}

	if err := t.Email.SendEmail([]string{notif.User.Email}, subject, notif.Message); err != nil {
		attempt := 1
		if a, ok := uintArg(task.Arguments, "attempt_count"); ok {
			attempt = int(a)
		}

		if attempt < task.MaxAttempt {
			newArgs := map[string]interface{}{
				"notification_id": notif.ID,
				"user_id":         notif.UserID,
				"subject":         subject,
				"attempt_count":   attempt + 1,
			}
			retry, buildErr := BuildScheduledTask(t.TaskID(), newArgs, time.Now().Add(5*time.Minute), nil, models.ScheduledTaskTypeOneTime, task.MaxAttempt)
			if buildErr == nil {
				db.Create(retry)
				log.Printf("Delivery of notification %d failed, rescheduled attempt %d: %v", notif.ID, attempt+1, err)
			} else {
				log.Printf("Failed to create retry task: %v", buildErr)
			}
			return map[string]interface{}{"status": "rescheduled", "attempt": attempt}, nil
		}

		return nil, fmt.Errorf("max attempts reached delivering notification %d: %w", notif.ID, err)
	}

	return map[string]interface{}{"status": "success", "recipient": notif.User.Email}, nil
}

// SendNotificationTask is the singleton instance of SendNotificationTaskDef
var SendNotificationTask = &SendNotificationTaskDef{}
