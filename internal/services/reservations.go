package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"library_app_echo/internal/models"
)

// ReservationService manages per-book pickup queues. All queue mutations
// run inside a transaction holding the book row lock, so positions can
// never interleave between concurrent requests, and the active set is
// defensively renumbered to a contiguous 1..N on every change.
type ReservationService struct {
	db            *gorm.DB
	catalog       *CatalogService
	notifications *NotificationService
}

// NewReservationService creates a ReservationService
func NewReservationService(db *gorm.DB, catalog *CatalogService, notifications *NotificationService) *ReservationService {
	return &ReservationService{db: db, catalog: catalog, notifications: notifications}
}

// lockBook takes the per-book mutex: a FOR UPDATE lock on the book row.
// Borrow availability checks and queue mutations serialize on it.
func lockBook(tx *gorm.DB, bookID uint) (*models.Book, error) {
	var book models.Book
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&book, bookID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("book")
		}
		return nil, err
	}
	return &book, nil
}

// Reserve places the user in the book's queue. Regular reservations join
// at the tail; priority reservations take position 1 and every other
// active entry shifts down by one in the same transaction.
func (s *ReservationService) Reserve(ctx context.Context, userID, bookID uint, rtype models.ReservationType) (*models.Reservation, error) {
	var reservation *models.Reservation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockBook(tx, bookID); err != nil {
			return err
		}

		var existing int64
		err := tx.Model(&models.Reservation{}).
			Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, models.ReservationStatusActive).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return StateConflict("you already have an active reservation for this book")
		}

		var activeCount int64
		err = tx.Model(&models.Reservation{}).
			Where("book_id = ? AND status = ?", bookID, models.ReservationStatusActive).
			Count(&activeCount).Error
		if err != nil {
			return err
		}

		position := int(activeCount) + 1
		if rtype == models.ReservationTypePriority {
			// Front of the queue; everyone else moves down one
			err = tx.Model(&models.Reservation{}).
				Where("book_id = ? AND status = ?", bookID, models.ReservationStatusActive).
				Update("queue_position", gorm.Expr("queue_position + 1")).Error
			if err != nil {
				return fmt.Errorf("failed to shift queue: %w", err)
			}
			position = 1
		}

		reservation = &models.Reservation{
			UserID:          userID,
			BookID:          bookID,
			Type:            rtype,
			ReservationDate: models.DateOnly(time.Now()),
			QueuePosition:   position,
			Status:          models.ReservationStatusActive,
		}
		if err := tx.Create(reservation).Error; err != nil {
			return fmt.Errorf("failed to create reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// Cancel withdraws the user's active reservation and closes the gap it
// leaves in the queue.
func (s *ReservationService) Cancel(ctx context.Context, userID, reservationID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var res models.Reservation
		if err := tx.First(&res, reservationID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NotFound("reservation")
			}
			return err
		}
		if res.UserID != userID {
			return NotFound("reservation")
		}
		if res.Status != models.ReservationStatusActive {
			return StateConflict("reservation is not active")
		}

		if _, err := lockBook(tx, res.BookID); err != nil {
			return err
		}

		res.Status = models.ReservationStatusCancelled
		if err := tx.Save(&res).Error; err != nil {
			return err
		}
		if err := s.renumber(tx, res.BookID); err != nil {
			return err
		}
		return s.NotifyHeadIfReady(tx, res.BookID)
	})
}

// FulfillForBorrow closes the borrower's active reservation on the book,
// if any, inside the borrow transaction. The caller already holds the
// book lock.
func (s *ReservationService) FulfillForBorrow(tx *gorm.DB, userID, bookID uint) error {
	var res models.Reservation
	err := tx.Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, models.ReservationStatusActive).
		First(&res).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}

	res.Status = models.ReservationStatusFulfilled
	if err := tx.Save(&res).Error; err != nil {
		return err
	}
	return s.renumber(tx, bookID)
}

// IsReady reports whether a reservation is claimable: head of the queue
// with at least one available copy.
func (s *ReservationService) IsReady(ctx context.Context, res *models.Reservation) (bool, error) {
	if res.Status != models.ReservationStatusActive || res.QueuePosition != 1 {
		return false, nil
	}
	available, err := s.catalog.AvailableCopiesCount(ctx, res.BookID)
	if err != nil {
		return false, err
	}
	return available > 0, nil
}

// NotifyHeadIfReady notifies the queue head once a copy is available,
// stamping the notification time and the pickup deadline. Runs inside
// the caller's transaction; already-notified heads are left alone.
func (s *ReservationService) NotifyHeadIfReady(tx *gorm.DB, bookID uint) error {
	var head models.Reservation
	err := tx.Preload("Book").
		Where("book_id = ? AND status = ? AND queue_position = 1", bookID, models.ReservationStatusActive).
		First(&head).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}
	if head.NotifiedAt != nil {
		return nil
	}

	available, err := CountAvailableCopies(tx, bookID)
	if err != nil {
		return err
	}
	if available == 0 {
		return nil
	}

	message := fmt.Sprintf("Your reserved book %q is ready for pickup.", head.Book.Title)
	if err := s.notifications.Notify(tx, head.UserID, models.NotificationTypeReservationReady, message); err != nil {
		return err
	}

	now := time.Now()
	expires := now.Add(models.PickupWindow)
	head.NotifiedAt = &now
	head.ExpiresAt = &expires
	return tx.Save(&head).Error
}

// ExpireLapsed expires notified reservations whose pickup window passed,
// renumbers each affected queue and offers the copy to the next head.
// Run by the background worker.
func (s *ReservationService) ExpireLapsed(ctx context.Context) (int, error) {
	var lapsed []models.Reservation
	err := s.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", models.ReservationStatusActive, time.Now()).
		Find(&lapsed).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find lapsed reservations: %w", err)
	}

	expired := 0
	for i := range lapsed {
		res := lapsed[i]
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if _, err := lockBook(tx, res.BookID); err != nil {
				return err
			}
			// Re-read under the lock; the holder may have picked it up
			var current models.Reservation
			if err := tx.First(&current, res.ID).Error; err != nil {
				return err
			}
			if current.Status != models.ReservationStatusActive || !current.PickupExpired(time.Now()) {
				return nil
			}

			current.Status = models.ReservationStatusExpired
			if err := tx.Save(&current).Error; err != nil {
				return err
			}
			if err := s.renumber(tx, current.BookID); err != nil {
				return err
			}
			expired++
			return s.NotifyHeadIfReady(tx, current.BookID)
		})
		if err != nil {
			return expired, err
		}
	}
	return expired, nil
}

// ListForUser returns the user's active reservations in queue order plus
// their reservation history.
func (s *ReservationService) ListForUser(ctx context.Context, userID uint) (active, past []models.Reservation, err error) {
	err = s.db.WithContext(ctx).Preload("Book").
		Where("user_id = ? AND status = ?", userID, models.ReservationStatusActive).
		Order("queue_position").
		Find(&active).Error
	if err != nil {
		return nil, nil, err
	}

	err = s.db.WithContext(ctx).Preload("Book").
		Where("user_id = ? AND status IN ?", userID, []models.ReservationStatus{
			models.ReservationStatusCancelled,
			models.ReservationStatusFulfilled,
			models.ReservationStatusExpired,
		}).
		Order("reservation_date desc").
		Find(&past).Error
	if err != nil {
		return nil, nil, err
	}
	return active, past, nil
}

// renumber recomputes contiguous queue positions for a book's active set.
// Caller holds the book lock.
func (s *ReservationService) renumber(tx *gorm.DB, bookID uint) error {
	var active []models.Reservation
	err := tx.Where("book_id = ? AND status = ?", bookID, models.ReservationStatusActive).
		Order("queue_position, reservation_date, id").
		Find(&active).Error
	if err != nil {
		return err
	}

	rs := make([]*models.Reservation, len(active))
	for i := range active {
		rs[i] = &active[i]
	}
	for _, changed := range models.RenumberQueue(rs) {
		err := tx.Model(&models.Reservation{}).
			Where("id = ?", changed.ID).
			Update("queue_position", changed.QueuePosition).Error
		if err != nil {
			return fmt.Errorf("failed to renumber queue: %w", err)
		}
	}
	return nil
}
