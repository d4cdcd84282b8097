package models

import (
	"testing"
	"time"
)

func standardRules() []FineRule {
	return []FineRule{
		{FineType: FineTypeOverdue, DelayFrom: 1, DelayTo: 3, RatePerDay: 2, ProcessingFee: 0},
		{FineType: FineTypeOverdue, DelayFrom: 4, DelayTo: 7, RatePerDay: 5, ProcessingFee: 0},
		{FineType: FineTypeOverdue, DelayFrom: 8, DelayTo: 999, RatePerDay: 10, ProcessingFee: 0},
		{FineType: FineTypeLost, DelayFrom: 1, DelayTo: 999, RatePerDay: 0, ProcessingFee: 50},
		{FineType: FineTypeDamaged, DelayFrom: 1, DelayTo: 999, RatePerDay: 0, ProcessingFee: 50},
	}
}

func TestOverdueFineAmount(t *testing.T) {
	rules := standardRules()

	tests := []struct {
		name     string
		days     int
		expected float64
	}{
		{name: "first day in lowest tier", days: 1, expected: 2},
		{name: "middle of lowest tier", days: 2, expected: 4},
		{name: "top of lowest tier", days: 3, expected: 6},
		{name: "first day in middle tier", days: 4, expected: 20},
		{name: "middle of middle tier", days: 5, expected: 25},
		{name: "top of middle tier", days: 7, expected: 35},
		{name: "first day in open tier", days: 8, expected: 80},
		{name: "deep in open tier", days: 30, expected: 300},
		{name: "not overdue", days: 0, expected: 0},
		{name: "negative days", days: -3, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OverdueFineAmount(rules, tt.days)
			if got != tt.expected {
				t.Errorf("OverdueFineAmount(rules, %d) = %v; want %v", tt.days, got, tt.expected)
			}
		})
	}
}

// The full day count is charged at the single matching tier's rate. A
// 10-day overdue charges 10*10=100, never 3*2+4*5+3*10=56.
func TestOverdueFineAmountNotCumulative(t *testing.T) {
	got := OverdueFineAmount(standardRules(), 10)
	if got != 100 {
		t.Errorf("OverdueFineAmount(rules, 10) = %v; want 100 (single-tier rate)", got)
	}
}

func TestOverdueFineAmountGapFallsBackToHighestTier(t *testing.T) {
	// Misconfigured table with a hole between day 3 and day 8
	rules := []FineRule{
		{FineType: FineTypeOverdue, DelayFrom: 1, DelayTo: 3, RatePerDay: 2},
		{FineType: FineTypeOverdue, DelayFrom: 8, DelayTo: 999, RatePerDay: 10},
	}

	got := OverdueFineAmount(rules, 5)
	if got != 50 {
		t.Errorf("OverdueFineAmount(gappy rules, 5) = %v; want 50 (largest DelayFrom rule)", got)
	}
}

func TestOverdueFineAmountNoRulesUsesDefaults(t *testing.T) {
	tests := []struct {
		days     int
		expected float64
	}{
		{days: 2, expected: 4},    // 2/day up to 3 days
		{days: 5, expected: 25},   // 5/day up to 7 days
		{days: 10, expected: 100}, // 10/day beyond
	}

	for _, tt := range tests {
		got := OverdueFineAmount(nil, tt.days)
		if got != tt.expected {
			t.Errorf("OverdueFineAmount(nil, %d) = %v; want %v", tt.days, got, tt.expected)
		}
	}
}

func TestFlatFineAmount(t *testing.T) {
	rules := standardRules()

	if got := FlatFineAmount(rules, FineTypeLost, 120); got != 170 {
		t.Errorf("lost fine = %v; want 170 (price + processing fee)", got)
	}
	if got := FlatFineAmount(rules, FineTypeDamaged, 80); got != 130 {
		t.Errorf("damaged fine = %v; want 130", got)
	}
	if got := FlatFineAmount(nil, FineTypeLost, 120); got != 120 {
		t.Errorf("lost fine without rules = %v; want bare copy price 120", got)
	}
}

func TestFineMarkPaid(t *testing.T) {
	f := Fine{Amount: 40}
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	f.MarkPaid(at)

	if !f.Paid {
		t.Error("expected fine to be paid")
	}
	if f.PaidDate == nil || !f.PaidDate.Equal(at) {
		t.Errorf("PaidDate = %v; want %v", f.PaidDate, at)
	}
}
