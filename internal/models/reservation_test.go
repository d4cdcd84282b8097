package models

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

func activeReservation(id uint, position int, day int) *Reservation {
	return &Reservation{
		ID:              id,
		QueuePosition:   position,
		ReservationDate: time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC),
		Status:          ReservationStatusActive,
	}
}

func TestRenumberQueueClosesGap(t *testing.T) {
	// Position 2 was cancelled; 1, 3, 4 remain
	queue := []*Reservation{
		activeReservation(10, 1, 1),
		activeReservation(11, 3, 2),
		activeReservation(12, 4, 3),
	}

	changed := RenumberQueue(queue)

	if got := []int{queue[0].QueuePosition, queue[1].QueuePosition, queue[2].QueuePosition}; got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("positions after renumber = %v; want [1 2 3]", got)
	}
	if len(changed) != 2 {
		t.Errorf("changed = %d reservations; want 2 (only shifted entries)", len(changed))
	}
}

func TestRenumberQueueNoChanges(t *testing.T) {
	queue := []*Reservation{
		activeReservation(10, 1, 1),
		activeReservation(11, 2, 2),
	}

	if changed := RenumberQueue(queue); len(changed) != 0 {
		t.Errorf("contiguous queue reported %d changes; want 0", len(changed))
	}
}

func TestRenumberQueueAfterPriorityInsert(t *testing.T) {
	// A priority hold took position 1 and shifted everyone else down,
	// which already yields a contiguous ranking
	queue := []*Reservation{
		activeReservation(20, 2, 1),
		activeReservation(21, 3, 2),
		activeReservation(22, 4, 3),
		activeReservation(99, 1, 9), // the priority entry
	}

	RenumberQueue(queue)

	byID := map[uint]int{}
	for _, r := range queue {
		byID[r.ID] = r.QueuePosition
	}
	want := map[uint]int{99: 1, 20: 2, 21: 3, 22: 4}
	for id, pos := range want {
		if byID[id] != pos {
			t.Errorf("reservation %d at position %d; want %d", id, byID[id], pos)
		}
	}
}

func TestRenumberQueueTiesBreakByDateThenID(t *testing.T) {
	// Duplicate positions from a lost renumber; earlier date wins, then id
	queue := []*Reservation{
		activeReservation(31, 2, 5),
		activeReservation(30, 2, 3),
		activeReservation(33, 2, 3),
	}

	RenumberQueue(queue)

	byID := map[uint]int{}
	for _, r := range queue {
		byID[r.ID] = r.QueuePosition
	}
	if byID[30] != 1 || byID[33] != 2 || byID[31] != 3 {
		t.Errorf("tie-broken positions = %v; want 30->1 33->2 31->3", byID)
	}
}

// Whatever shape the queue arrives in, renumbering must always produce a
// contiguous 1..N ranking that preserves the relative order of entries.
func TestRenumberQueueProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n")

		queue := make([]*Reservation, n)
		for i := 0; i < n; i++ {
			queue[i] = activeReservation(
				uint(i+1),
				rapid.IntRange(1, 30).Draw(t, "pos"),
				rapid.IntRange(1, 28).Draw(t, "day"),
			)
		}

		originalPos := make(map[uint]int, n)
		for _, r := range queue {
			originalPos[r.ID] = r.QueuePosition
		}

		RenumberQueue(queue)

		seen := make(map[int]bool, n)
		for _, r := range queue {
			if r.QueuePosition < 1 || r.QueuePosition > n {
				t.Fatalf("position %d out of range 1..%d", r.QueuePosition, n)
			}
			if seen[r.QueuePosition] {
				t.Fatalf("duplicate position %d", r.QueuePosition)
			}
			seen[r.QueuePosition] = true
		}

		// Relative order of distinct original positions is preserved
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				a, b := queue[i], queue[j]
				if originalPos[a.ID] < originalPos[b.ID] && a.QueuePosition > b.QueuePosition {
					t.Fatalf("reservations %d and %d swapped order", a.ID, b.ID)
				}
			}
		}
	})
}

func TestPickupExpired(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	past := now.Add(-time.Hour)
	future := now.Add(PickupWindow)

	tests := []struct {
		name      string
		expiresAt *time.Time
		expected  bool
	}{
		{name: "never notified", expiresAt: nil, expected: false},
		{name: "window still open", expiresAt: &future, expected: false},
		{name: "window lapsed", expiresAt: &past, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Reservation{ExpiresAt: tt.expiresAt}
			if got := r.PickupExpired(now); got != tt.expected {
				t.Errorf("PickupExpired = %v; want %v", got, tt.expected)
			}
		})
	}
}
