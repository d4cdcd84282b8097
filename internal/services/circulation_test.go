package services

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"library_app_echo/internal/models"
)

// setupTestDB connects to the database named by TEST_DATABASE_URL and
// resets the circulation tables. Tests are skipped when no database is
// reachable so the pure-logic suites still run everywhere.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("skipping: TEST_DATABASE_URL not set")
	}

	db, err := InitDB(dsn)
	if err != nil {
		t.Skipf("skipping: could not connect to postgres: %v", err)
	}

	require.NoError(t, AutoMigrate(db))

	// hard delete so uniqueIndex columns don't collide with soft-deleted rows
	for _, table := range []string{
		"payments", "fines", "fine_rules", "loan_extensions", "loans",
		"reservations", "user_notifications", "scheduled_tasks",
		"scheduled_task_histories", "book_condition_logs", "book_copies",
		"book_authors", "books", "user_roles", "users", "membership_tiers",
	} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}

	return db
}

type testEnv struct {
	db            *gorm.DB
	catalog       *CatalogService
	fines         *FineService
	notifications *NotificationService
	reservations  *ReservationService
	circulation   *CirculationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)

	catalog := NewCatalogService(db, nil)
	fines := NewFineService(db, nil)
	notifications := NewNotificationService(db)
	reservations := NewReservationService(db, catalog, notifications)
	circulation := NewCirculationService(db, catalog, fines, reservations, notifications)

	return &testEnv{
		db:            db,
		catalog:       catalog,
		fines:         fines,
		notifications: notifications,
		reservations:  reservations,
		circulation:   circulation,
	}
}

func (e *testEnv) createTier(t *testing.T, mtype models.MembershipType, maxBooks, loanDays, extensionDays int) *models.MembershipTier {
	t.Helper()
	tier := &models.MembershipTier{
		Type:           mtype,
		MaxBooks:       maxBooks,
		LoanPeriodDays: loanDays,
		ExtensionDays:  extensionDays,
	}
	require.NoError(t, e.db.Create(tier).Error)
	return tier
}

func (e *testEnv) createUser(t *testing.T, email string, tier *models.MembershipTier) *models.User {
	t.Helper()
	user := &models.User{
		Name:             "Test Member",
		Email:            email,
		MembershipStatus: models.MembershipStatusActive,
	}
	if tier != nil {
		user.MembershipTierID = &tier.ID
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createBook(t *testing.T, isbn string, copies int) (*models.Book, []models.BookCopy) {
	t.Helper()
	book := &models.Book{ISBN: isbn, Title: "Test Book " + isbn, Category: "fiction"}
	require.NoError(t, e.db.Create(book).Error)

	created := make([]models.BookCopy, 0, copies)
	for i := 0; i < copies; i++ {
		copy := models.BookCopy{
			BookID:        book.ID,
			Barcode:       fmt.Sprintf("%s-%d", isbn, i+1),
			PurchasePrice: 120,
			Condition:     models.CopyConditionGood,
		}
		require.NoError(t, e.db.Create(&copy).Error)
		created = append(created, copy)
	}
	return book, created
}

func (e *testEnv) seedFineRules(t *testing.T) {
	t.Helper()
	rules := []models.FineRule{
		{FineType: models.FineTypeOverdue, DelayFrom: 1, DelayTo: 3, RatePerDay: 2},
		{FineType: models.FineTypeOverdue, DelayFrom: 4, DelayTo: 7, RatePerDay: 5},
		{FineType: models.FineTypeOverdue, DelayFrom: 8, DelayTo: 999, RatePerDay: 10},
		{FineType: models.FineTypeLost, DelayFrom: 1, DelayTo: 999, ProcessingFee: 50},
		{FineType: models.FineTypeDamaged, DelayFrom: 1, DelayTo: 999, ProcessingFee: 50},
	}
	require.NoError(t, e.db.Create(&rules).Error)
}

func TestBorrowAndReturn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tier := env.createTier(t, models.MembershipTypeBasic, 3, 14, 0)
	user := env.createUser(t, "borrower@test.local", tier)
	book, _ := env.createBook(t, "9780000000001", 1)

	loan, err := env.circulation.Borrow(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusBorrowed, loan.Status)

	wantDue := models.DateOnly(time.Now()).AddDate(0, 0, 14)
	assert.True(t, models.DateOnly(loan.DueDate).Equal(wantDue), "due date = borrow date + tier loan period")

	// the only copy is out, a second borrow must be refused
	other := env.createUser(t, "other@test.local", tier)
	_, err = env.circulation.Borrow(ctx, other.ID, book.ID)
	var pv *PolicyViolationError
	require.ErrorAs(t, err, &pv)

	returned, fine, err := env.circulation.Return(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusReturned, returned.Status)
	assert.NotNil(t, returned.ReturnDate)
	assert.Nil(t, fine, "on-time return raises no fine")

	// returning again conflicts
	_, _, err = env.circulation.Return(ctx, loan.ID)
	var sc *StateConflictError
	require.ErrorAs(t, err, &sc)
}

func TestBorrowLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tier := env.createTier(t, models.MembershipTypeBasic, 1, 14, 0)
	user := env.createUser(t, "limited@test.local", tier)
	first, _ := env.createBook(t, "9780000000011", 1)
	second, _ := env.createBook(t, "9780000000012", 1)

	_, err := env.circulation.Borrow(ctx, user.ID, first.ID)
	require.NoError(t, err)

	_, err = env.circulation.Borrow(ctx, user.ID, second.ID)
	var pv *PolicyViolationError
	require.ErrorAs(t, err, &pv)
	assert.Contains(t, pv.Error(), "borrowing limit")
}

func TestLateReturnRaisesTieredFine(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedFineRules(t)

	tier := env.createTier(t, models.MembershipTypeBasic, 3, 14, 0)
	user := env.createUser(t, "late@test.local", tier)
	_, copies := env.createBook(t, "9780000000021", 1)

	// backdate the loan five days past due
	today := models.DateOnly(time.Now())
	loan := models.Loan{
		UserID:     user.ID,
		BookCopyID: copies[0].ID,
		BorrowDate: today.AddDate(0, 0, -19),
		DueDate:    today.AddDate(0, 0, -5),
		Status:     models.LoanStatusBorrowed,
	}
	require.NoError(t, env.db.Create(&loan).Error)

	_, fine, err := env.circulation.Return(ctx, loan.ID)
	require.NoError(t, err)
	require.NotNil(t, fine)
	assert.Equal(t, float64(25), fine.Amount, "5 days late in the 5/day tier")
	assert.Equal(t, models.FineTypeOverdue, fine.FineType)

	var notices int64
	require.NoError(t, env.db.Model(&models.UserNotification{}).
		Where("user_id = ? AND type = ?", user.ID, models.NotificationTypeFineNotice).
		Count(&notices).Error)
	assert.EqualValues(t, 1, notices)
}

func TestExtendLoan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	premium := env.createTier(t, models.MembershipTypePremium, 5, 14, 7)
	user := env.createUser(t, "premium@test.local", premium)
	book, _ := env.createBook(t, "9780000000031", 1)

	loan, err := env.circulation.Borrow(ctx, user.ID, book.ID)
	require.NoError(t, err)
	originalDue := models.DateOnly(loan.DueDate)

	extended, err := env.circulation.Extend(ctx, user.ID, loan.ID)
	require.NoError(t, err)
	assert.True(t, models.DateOnly(extended.DueDate).Equal(originalDue.AddDate(0, 0, 7)))

	// one extension per loan
	_, err = env.circulation.Extend(ctx, user.ID, loan.ID)
	var pv *PolicyViolationError
	require.ErrorAs(t, err, &pv)
	assert.Contains(t, pv.Error(), "already been extended")
}

func TestExtendDeniedWithoutAllowance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	basic := env.createTier(t, models.MembershipTypeBasic, 3, 14, 0)
	user := env.createUser(t, "basic@test.local", basic)
	book, _ := env.createBook(t, "9780000000041", 1)

	loan, err := env.circulation.Borrow(ctx, user.ID, book.ID)
	require.NoError(t, err)

	_, err = env.circulation.Extend(ctx, user.ID, loan.ID)
	var pv *PolicyViolationError
	require.ErrorAs(t, err, &pv)
	assert.Contains(t, pv.Error(), "no extension days")
}

func TestExtendDeniedWhenReservedByAnother(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	premium := env.createTier(t, models.MembershipTypePremium, 5, 14, 7)
	borrower := env.createUser(t, "holder@test.local", premium)
	waiter := env.createUser(t, "waiter@test.local", premium)
	book, _ := env.createBook(t, "9780000000051", 1)

	loan, err := env.circulation.Borrow(ctx, borrower.ID, book.ID)
	require.NoError(t, err)

	_, err = env.reservations.Reserve(ctx, waiter.ID, book.ID, models.ReservationTypeRegular)
	require.NoError(t, err)

	_, err = env.circulation.Extend(ctx, borrower.ID, loan.ID)
	var pv *PolicyViolationError
	require.ErrorAs(t, err, &pv)
	assert.Contains(t, pv.Error(), "reserved by another member")
}

func TestMarkCopyLostFinesBorrower(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedFineRules(t)

	tier := env.createTier(t, models.MembershipTypeBasic, 3, 14, 0)
	user := env.createUser(t, "loser@test.local", tier)
	book, copies := env.createBook(t, "9780000000061", 1)

	_, err := env.circulation.Borrow(ctx, user.ID, book.ID)
	require.NoError(t, err)

	fine, err := env.circulation.MarkCopyCondition(ctx, copies[0].ID, models.CopyConditionLost, "reported lost by member")
	require.NoError(t, err)
	require.NotNil(t, fine)
	assert.Equal(t, float64(170), fine.Amount, "copy price 120 + processing fee 50")
	assert.Equal(t, models.FineTypeLost, fine.FineType)
	assert.Equal(t, user.ID, fine.UserID)
}
