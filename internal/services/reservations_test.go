package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library_app_echo/internal/models"
)

func (e *testEnv) queuePositions(t *testing.T, bookID uint) map[uint]int {
	t.Helper()
	var active []models.Reservation
	require.NoError(t, e.db.
		Where("book_id = ? AND status = ?", bookID, models.ReservationStatusActive).
		Find(&active).Error)

	byUser := make(map[uint]int, len(active))
	for _, r := range active {
		byUser[r.UserID] = r.QueuePosition
	}
	return byUser
}

func TestReserveAssignsTailPositions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tier := env.createTier(t, models.MembershipTypeBasic, 3, 14, 0)
	book, _ := env.createBook(t, "9780000000101", 1)

	users := make([]*models.User, 3)
	for i := range users {
		users[i] = env.createUser(t, fmt.Sprintf("queue%d@test.local", i+1), tier)
		res, err := env.reservations.Reserve(ctx, users[i].ID, book.ID, models.ReservationTypeRegular)
		require.NoError(t, err)
		assert.Equal(t, i+1, res.QueuePosition)
	}

	// a second reservation by the same user is refused
	_, err := env.reservations.Reserve(ctx, users[0].ID, book.ID, models.ReservationTypeRegular)
	var sc *StateConflictError
	require.ErrorAs(t, err, &sc)
}

func TestPriorityReservationTakesHead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tier := env.createTier(t, models.MembershipTypeBasic, 3, 14, 0)
	book, _ := env.createBook(t, "9780000000111", 1)

	first := env.createUser(t, "first@test.local", tier)
	second := env.createUser(t, "second@test.local", tier)
	vip := env.createUser(t, "vip@test.local", tier)

	_, err := env.reservations.Reserve(ctx, first.ID, book.ID, models.ReservationTypeRegular)
	require.NoError(t, err)
	_, err = env.reservations.Reserve(ctx, second.ID, book.ID, models.ReservationTypeRegular)
	require.NoError(t, err)

	res, err := env.reservations.Reserve(ctx, vip.ID, book.ID, models.ReservationTypePriority)
	require.NoError(t, err)
	assert.Equal(t, 1, res.QueuePosition)

	positions := env.queuePositions(t, book.ID)
	assert.Equal(t, map[uint]int{vip.ID: 1, first.ID: 2, second.ID: 3}, positions)
}

func TestCancelClosesQueueGap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tier := env.createTier(t, models.MembershipTypeBasic, 3, 14, 0)
	book, _ := env.createBook(t, "9780000000121", 0)

	first := env.createUser(t, "head@test.local", tier)
	second := env.createUser(t, "middle@test.local", tier)
	third := env.createUser(t, "tail@test.local", tier)

	headRes, err := env.reservations.Reserve(ctx, first.ID, book.ID, models.ReservationTypeRegular)
	require.NoError(t, err)
	_, err = env.reservations.Reserve(ctx, second.ID, book.ID, models.ReservationTypeRegular)
	require.NoError(t, err)
	_, err = env.reservations.Reserve(ctx, third.ID, book.ID, models.ReservationTypeRegular)
	require.NoError(t, err)

	require.NoError(t, env.reservations.Cancel(ctx, first.ID, headRes.ID))

	positions := env.queuePositions(t, book.ID)
	assert.Equal(t, map[uint]int{second.ID: 1, third.ID: 2}, positions)

	// cancelling someone else's reservation looks like a missing record
	var other models.Reservation
	require.NoError(t, env.db.Where("user_id = ?", second.ID).First(&other).Error)
	err = env.reservations.Cancel(ctx, third.ID, other.ID)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestReturnNotifiesQueueHead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tier := env.createTier(t, models.MembershipTypeBasic, 3, 14, 0)
	borrower := env.createUser(t, "out@test.local", tier)
	waiter := env.createUser(t, "waiting@test.local", tier)
	book, _ := env.createBook(t, "9780000000131", 1)

	loan, err := env.circulation.Borrow(ctx, borrower.ID, book.ID)
	require.NoError(t, err)

	res, err := env.reservations.Reserve(ctx, waiter.ID, book.ID, models.ReservationTypeRegular)
	require.NoError(t, err)

	// nothing available yet, so the head is not claimable
	ready, err := env.reservations.IsReady(ctx, res)
	require.NoError(t, err)
	assert.False(t, ready)

	_, _, err = env.circulation.Return(ctx, loan.ID)
	require.NoError(t, err)

	var notified models.Reservation
	require.NoError(t, env.db.First(&notified, res.ID).Error)
	require.NotNil(t, notified.NotifiedAt)
	require.NotNil(t, notified.ExpiresAt)
	assert.WithinDuration(t, notified.NotifiedAt.Add(models.PickupWindow), *notified.ExpiresAt, time.Second)

	var notices int64
	require.NoError(t, env.db.Model(&models.UserNotification{}).
		Where("user_id = ? AND type = ?", waiter.ID, models.NotificationTypeReservationReady).
		Count(&notices).Error)
	assert.EqualValues(t, 1, notices)

	ready, err = env.reservations.IsReady(ctx, &notified)
	require.NoError(t, err)
	assert.True(t, ready)
}

func TestExpireLapsedAdvancesQueue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tier := env.createTier(t, models.MembershipTypeBasic, 3, 14, 0)
	sleeper := env.createUser(t, "sleeper@test.local", tier)
	next := env.createUser(t, "next@test.local", tier)
	book, _ := env.createBook(t, "9780000000141", 1)

	headRes, err := env.reservations.Reserve(ctx, sleeper.ID, book.ID, models.ReservationTypeRegular)
	require.NoError(t, err)
	_, err = env.reservations.Reserve(ctx, next.ID, book.ID, models.ReservationTypeRegular)
	require.NoError(t, err)

	// backdate the head's pickup window past its deadline
	notified := time.Now().Add(-4 * 24 * time.Hour)
	expires := notified.Add(models.PickupWindow)
	require.NoError(t, env.db.Model(&models.Reservation{}).
		Where("id = ?", headRes.ID).
		Updates(map[string]interface{}{"notified_at": notified, "expires_at": expires}).Error)

	expired, err := env.reservations.ExpireLapsed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	var old models.Reservation
	require.NoError(t, env.db.First(&old, headRes.ID).Error)
	assert.Equal(t, models.ReservationStatusExpired, old.Status)

	positions := env.queuePositions(t, book.ID)
	assert.Equal(t, map[uint]int{next.ID: 1}, positions)

	// the new head was notified since a copy is on the shelf
	var promoted models.Reservation
	require.NoError(t, env.db.Where("user_id = ?", next.ID).First(&promoted).Error)
	assert.NotNil(t, promoted.NotifiedAt)
}

func TestBorrowFulfillsOwnReservation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tier := env.createTier(t, models.MembershipTypeBasic, 3, 14, 0)
	user := env.createUser(t, "pickup@test.local", tier)
	book, _ := env.createBook(t, "9780000000151", 1)

	res, err := env.reservations.Reserve(ctx, user.ID, book.ID, models.ReservationTypeRegular)
	require.NoError(t, err)

	_, err = env.circulation.Borrow(ctx, user.ID, book.ID)
	require.NoError(t, err)

	var fulfilled models.Reservation
	require.NoError(t, env.db.First(&fulfilled, res.ID).Error)
	assert.Equal(t, models.ReservationStatusFulfilled, fulfilled.Status)
}
