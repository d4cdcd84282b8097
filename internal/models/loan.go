package models

import (
	"time"

	"gorm.io/gorm"
)

// LoanStatus represents the stored state of a loan. Overdue is a derived
// display state: status stays "borrowed" while due date comparison decides.
type LoanStatus string

const (
	LoanStatusBorrowed LoanStatus = "borrowed"
	LoanStatusReturned LoanStatus = "returned"
)

// Loan is a single borrow transaction. Created on borrow, mutated to
// returned with the return date set, never deleted. At most one loan per
// copy may be borrowed at any time; the coordinator enforces this with a
// locked availability check before creation.
type Loan struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID     uint     `gorm:"index" json:"user_id"`
	User       User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	BookCopyID uint     `gorm:"index" json:"book_copy_id"`
	BookCopy   BookCopy `gorm:"foreignKey:BookCopyID" json:"book_copy,omitempty"`

	BorrowDate time.Time  `gorm:"type:date" json:"borrow_date"`
	DueDate    time.Time  `gorm:"type:date" json:"due_date"`
	ReturnDate *time.Time `gorm:"type:date" json:"return_date"`
	Status     LoanStatus `gorm:"type:varchar(20);default:'borrowed';index" json:"status"`

	Extensions []LoanExtension `gorm:"foreignKey:LoanID" json:"extensions,omitempty"`
}

// DateOnly truncates a timestamp to its calendar date in local time.
// Loan arithmetic works in whole days, so comparisons must ignore clock time.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// IsOverdue reports whether the loan is past due and not yet returned
func (l *Loan) IsOverdue(today time.Time) bool {
	if l.Status == LoanStatusReturned {
		return false
	}
	return DateOnly(today).After(DateOnly(l.DueDate))
}

// DaysOverdue returns the number of whole days past the due date, or 0
func (l *Loan) DaysOverdue(today time.Time) int {
	if !l.IsOverdue(today) {
		return 0
	}
	return int(DateOnly(today).Sub(DateOnly(l.DueDate)).Hours() / 24)
}

// DaysUntilDue returns days remaining before the due date; negative if past
func (l *Loan) DaysUntilDue(today time.Time) int {
	return int(DateOnly(l.DueDate).Sub(DateOnly(today)).Hours() / 24)
}

// LoanExtension records a one-time due-date postponement. At most one per
// loan, enforced by an existence check rather than a uniqueness constraint.
type LoanExtension struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	LoanID         uint `gorm:"index" json:"loan_id"`
	Loan           Loan `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
	ExtendedByDays int  `json:"extended_by_days"`
}
