package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType classifies user notifications
type NotificationType string

const (
	NotificationTypeDueSoon          NotificationType = "due_soon"
	NotificationTypeOverdue          NotificationType = "overdue"
	NotificationTypeReservationReady NotificationType = "reservation_ready"
	NotificationTypeFineNotice       NotificationType = "fine_notice"
	NotificationTypeMembershipExpiry NotificationType = "membership_expiry"
	NotificationTypeSystemNotice     NotificationType = "system_notice"
)

// UserNotification is a persisted message to a user. Delivery over e-mail
// happens separately; the row is the source of truth for the in-app inbox.
type UserNotification struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID  uint             `gorm:"index" json:"user_id"`
	User    User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type    NotificationType `gorm:"type:varchar(30)" json:"type"`
	Message string           `gorm:"type:text" json:"message"`
	SentAt  time.Time        `json:"sent_at"`
	Read    bool             `gorm:"default:false" json:"read"`
}
