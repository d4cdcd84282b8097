package models

import (
	"sort"
	"time"

	"gorm.io/gorm"
)

// ReservationType distinguishes regular queue entries from priority ones
type ReservationType string

const (
	ReservationTypeRegular  ReservationType = "regular"
	ReservationTypePriority ReservationType = "priority"
)

// ReservationStatus represents the lifecycle state of a reservation
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusFulfilled ReservationStatus = "fulfilled"
	ReservationStatusExpired   ReservationStatus = "expired"
)

// PickupWindow is how long a notified reservation stays claimable
const PickupWindow = 3 * 24 * time.Hour

// Reservation is an entry in a book's pickup queue. Among active
// reservations for a book, queue positions form a contiguous 1..N ranking
// with no duplicates.
type Reservation struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID uint `gorm:"index" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	BookID uint `gorm:"index" json:"book_id"`
	Book   Book `gorm:"foreignKey:BookID" json:"book,omitempty"`

	Type            ReservationType   `gorm:"type:varchar(20);default:'regular'" json:"type"`
	ReservationDate time.Time         `gorm:"type:date" json:"reservation_date"`
	QueuePosition   int               `gorm:"default:1" json:"queue_position"`
	Status          ReservationStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`
	NotifiedAt      *time.Time        `json:"notified_at"`
	ExpiresAt       *time.Time        `json:"expires_at"`
}

// PickupExpired reports whether a notified reservation outlived its window
func (r *Reservation) PickupExpired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// RenumberQueue recomputes contiguous 1..N positions for the active
// reservations of one book, keeping the existing order: current position
// first, then reservation date, then id as the tiebreaker. It mutates the
// elements in place and returns the ones whose position changed, so callers
// persist only actual updates. Run on every active-set mutation; the legacy
// system left gaps on some removal paths, this renumbers defensively instead.
func RenumberQueue(rs []*Reservation) []*Reservation {
	sorted := make([]*Reservation, len(rs))
	copy(sorted, rs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].QueuePosition != sorted[j].QueuePosition {
			return sorted[i].QueuePosition < sorted[j].QueuePosition
		}
		if !sorted[i].ReservationDate.Equal(sorted[j].ReservationDate) {
			return sorted[i].ReservationDate.Before(sorted[j].ReservationDate)
		}
		return sorted[i].ID < sorted[j].ID
	})

	var changed []*Reservation
	for i, r := range sorted {
		if want := i + 1; r.QueuePosition != want {
			r.QueuePosition = want
			changed = append(changed, r)
		}
	}
	return changed
}
