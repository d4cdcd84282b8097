package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentPurpose identifies what a payment settles
type PaymentPurpose string

const (
	PaymentPurposeMembership PaymentPurpose = "membership"
	PaymentPurposeFine       PaymentPurpose = "fine"
)

// PaymentStatus represents the state of a payment record
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PaymentMethod is how the payment was made at the desk
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodMobile PaymentMethod = "mobile"
)

// Payment records money received from a user. RelatedID points at the
// record the payment settles (e.g. a fine) depending on the purpose.
type Payment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID    uint           `gorm:"index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Purpose   PaymentPurpose `gorm:"type:varchar(20)" json:"purpose"`
	RelatedID *uint          `json:"related_id"`

	Amount        float64       `gorm:"type:decimal(10,2)" json:"amount"`
	Status        PaymentStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Method        PaymentMethod `gorm:"type:varchar(20);default:'cash'" json:"method"`
	TransactionID string        `gorm:"type:varchar(36);uniqueIndex" json:"transaction_id"`
	PaymentDate   time.Time     `json:"payment_date"`

	ProcessedByID *uint  `json:"processed_by_id"`
	ProcessedBy   *User  `gorm:"foreignKey:ProcessedByID" json:"processed_by,omitempty"`
	Notes         string `gorm:"type:text" json:"notes"`
}
