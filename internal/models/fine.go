package models

import (
	"time"

	"gorm.io/gorm"
)

// FineType classifies the reason a fine was raised
type FineType string

const (
	FineTypeOverdue FineType = "overdue"
	FineTypeLost    FineType = "lost"
	FineTypeDamaged FineType = "damaged"
)

// Hardcoded per-day rates used when no fine rules are configured at all
const (
	fallbackRateShort = 2  // 1-3 days late, MVR per day
	fallbackRateMid   = 5  // 4-7 days late
	fallbackRateLong  = 10 // more than 7 days
)

// FineRule maps an inclusive day range to a per-day rate for a fine type.
// Ranges within a type must not overlap; the top tier uses a large DelayTo
// sentinel (999) to stay open-ended. Lost/damaged rules are flat: the rate
// is zero and the charge is the copy price plus the processing fee.
type FineRule struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	FineType      FineType `gorm:"type:varchar(20);index" json:"fine_type"`
	DelayFrom     int      `json:"delay_from"`
	DelayTo       int      `json:"delay_to"`
	RatePerDay    float64  `gorm:"type:decimal(10,2)" json:"rate_per_day"`
	ProcessingFee float64  `gorm:"type:decimal(10,2);default:0" json:"processing_fee"`
}

// Matches reports whether daysOverdue falls in the rule's inclusive range
func (r FineRule) Matches(daysOverdue int) bool {
	return daysOverdue >= r.DelayFrom && daysOverdue <= r.DelayTo
}

// OverdueFineAmount computes the fine for an overdue return against the
// configured rule set. The full day count is charged at the matching tier's
// single rate; tiers are never summed cumulatively. A 10-day overdue at
// ">7 days = 10/day" charges 100, not 3*2+4*5+3*10. Preserved as the
// documented contract.
//
// When no rule covers the day count, the overdue rule with the largest
// DelayFrom applies. With no overdue rules configured at all, hardcoded
// default rates apply with no processing fee.
func OverdueFineAmount(rules []FineRule, daysOverdue int) float64 {
	if daysOverdue <= 0 {
		return 0
	}

	var fallback *FineRule
	for i := range rules {
		rule := &rules[i]
		if rule.FineType != FineTypeOverdue {
			continue
		}
		if rule.Matches(daysOverdue) {
			return float64(daysOverdue)*rule.RatePerDay + rule.ProcessingFee
		}
		if fallback == nil || rule.DelayFrom > fallback.DelayFrom {
			fallback = rule
		}
	}

	// Misconfigured table: charge the highest tier rather than fail
	if fallback != nil {
		return float64(daysOverdue)*fallback.RatePerDay + fallback.ProcessingFee
	}

	switch {
	case daysOverdue <= 3:
		return float64(daysOverdue) * fallbackRateShort
	case daysOverdue <= 7:
		return float64(daysOverdue) * fallbackRateMid
	default:
		return float64(daysOverdue) * fallbackRateLong
	}
}

// FlatFineAmount computes the charge for a lost or damaged copy: the full
// copy price plus the rule's processing fee. Without a configured rule the
// charge is the copy price alone.
func FlatFineAmount(rules []FineRule, fineType FineType, copyPrice float64) float64 {
	for _, rule := range rules {
		if rule.FineType == fineType {
			return copyPrice + rule.ProcessingFee
		}
	}
	return copyPrice
}

// Fine is a charge against a user. Immutable once created except for the
// paid transition.
type Fine struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID uint  `gorm:"index" json:"user_id"`
	User   User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	LoanID *uint `gorm:"index" json:"loan_id"`
	Loan   *Loan `gorm:"foreignKey:LoanID" json:"loan,omitempty"`

	Amount      float64    `gorm:"type:decimal(10,2)" json:"amount"`
	FineType    FineType   `gorm:"type:varchar(20);default:'overdue'" json:"fine_type"`
	Description string     `gorm:"type:text" json:"description"`
	Paid        bool       `gorm:"default:false;index" json:"paid"`
	FineDate    time.Time  `json:"fine_date"`
	PaidDate    *time.Time `json:"paid_date"`
}

// MarkPaid flips the fine to paid with the given timestamp
func (f *Fine) MarkPaid(at time.Time) {
	f.Paid = true
	f.PaidDate = &at
}
