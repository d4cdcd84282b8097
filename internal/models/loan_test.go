package models

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLoanIsOverdue(t *testing.T) {
	due := date(2025, 5, 10)

	tests := []struct {
		name     string
		today    time.Time
		status   LoanStatus
		expected bool
	}{
		{name: "before due date", today: date(2025, 5, 8), status: LoanStatusBorrowed, expected: false},
		{name: "on due date", today: date(2025, 5, 10), status: LoanStatusBorrowed, expected: false},
		{name: "day after due date", today: date(2025, 5, 11), status: LoanStatusBorrowed, expected: true},
		{name: "late in the day on due date", today: time.Date(2025, 5, 10, 23, 30, 0, 0, time.UTC), status: LoanStatusBorrowed, expected: false},
		{name: "returned loan never overdue", today: date(2025, 6, 1), status: LoanStatusReturned, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Loan{DueDate: due, Status: tt.status}
			if got := l.IsOverdue(tt.today); got != tt.expected {
				t.Errorf("IsOverdue(%v) = %v; want %v", tt.today, got, tt.expected)
			}
		})
	}
}

func TestLoanDaysOverdue(t *testing.T) {
	l := Loan{DueDate: date(2025, 5, 10), Status: LoanStatusBorrowed}

	tests := []struct {
		name     string
		today    time.Time
		expected int
	}{
		{name: "not yet due", today: date(2025, 5, 9), expected: 0},
		{name: "due today", today: date(2025, 5, 10), expected: 0},
		{name: "one day late", today: date(2025, 5, 11), expected: 1},
		{name: "a week late", today: date(2025, 5, 17), expected: 7},
		{name: "clock time ignored", today: time.Date(2025, 5, 11, 1, 0, 0, 0, time.UTC), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.DaysOverdue(tt.today); got != tt.expected {
				t.Errorf("DaysOverdue(%v) = %d; want %d", tt.today, got, tt.expected)
			}
		})
	}
}

func TestLoanDaysUntilDue(t *testing.T) {
	l := Loan{DueDate: date(2025, 5, 10), Status: LoanStatusBorrowed}

	if got := l.DaysUntilDue(date(2025, 5, 7)); got != 3 {
		t.Errorf("DaysUntilDue three days out = %d; want 3", got)
	}
	if got := l.DaysUntilDue(date(2025, 5, 10)); got != 0 {
		t.Errorf("DaysUntilDue on the due date = %d; want 0", got)
	}
	if got := l.DaysUntilDue(date(2025, 5, 12)); got != -2 {
		t.Errorf("DaysUntilDue past due = %d; want -2", got)
	}
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2025, 5, 10, 23, 59, 59, 999, time.UTC)
	got := DateOnly(in)
	want := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)

	if !got.Equal(want) {
		t.Errorf("DateOnly(%v) = %v; want %v", in, got, want)
	}
}
