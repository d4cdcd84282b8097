package models

import (
	"time"

	"gorm.io/gorm"
)

// MembershipType enumerates the supported membership tiers
type MembershipType string

const (
	MembershipTypeBasic   MembershipType = "basic"
	MembershipTypePremium MembershipType = "premium"
	MembershipTypeStudent MembershipType = "student"
)

// Basic-tier values applied whenever a user has no tier assigned.
// Every policy lookup falls back to these instead of failing.
const (
	DefaultLoanPeriodDays = 14
	DefaultMaxBooks       = 3
	DefaultExtensionDays  = 0
)

// MembershipTier defines the fee structure and borrowing entitlements
// for a membership type. Immutable reference data, looked up by type.
type MembershipTier struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Type           MembershipType `gorm:"type:varchar(20);uniqueIndex" json:"type"`
	MonthlyFee     float64        `gorm:"type:decimal(10,2)" json:"monthly_fee"`
	AnnualFee      float64        `gorm:"type:decimal(10,2)" json:"annual_fee"`
	MaxBooks       int            `json:"max_books"`
	LoanPeriodDays int            `json:"loan_period_days"`
	ExtensionDays  int            `gorm:"default:0" json:"extension_days"`
}
