package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"library_app_echo/internal/models"
)

// CirculationService orchestrates borrow, return and extend against the
// membership policy, fine table and reservation queue. Each operation is
// one transaction; the availability check and loan creation hold the book
// row lock so two requests can never both take the last copy.
type CirculationService struct {
	db            *gorm.DB
	catalog       *CatalogService
	fines         *FineService
	reservations  *ReservationService
	notifications *NotificationService
}

// NewCirculationService creates a CirculationService
func NewCirculationService(db *gorm.DB, catalog *CatalogService, fines *FineService, reservations *ReservationService, notifications *NotificationService) *CirculationService {
	return &CirculationService{
		db:            db,
		catalog:       catalog,
		fines:         fines,
		reservations:  reservations,
		notifications: notifications,
	}
}

func loadUserWithTier(tx *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := tx.Preload("MembershipTier").First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}

// Borrow checks out the first available copy of a book to the user
func (s *CirculationService) Borrow(ctx context.Context, userID, bookID uint) (*models.Loan, error) {
	var loan *models.Loan

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := loadUserWithTier(tx, userID)
		if err != nil {
			return err
		}
		if user.MembershipStatus != models.MembershipStatusActive {
			return PolicyViolation("membership is %s", user.MembershipStatus)
		}

		if _, err := lockBook(tx, bookID); err != nil {
			return err
		}

		if err := s.checkBorrowLimit(tx, user); err != nil {
			return err
		}

		var copy models.BookCopy
		err = tx.Where("book_id = ? AND condition = ?", bookID, models.CopyConditionGood).
			Where("NOT EXISTS (SELECT 1 FROM loans WHERE loans.book_copy_id = book_copies.id AND loans.status = ? AND loans.deleted_at IS NULL)", models.LoanStatusBorrowed).
			Order("id").
			First(&copy).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return PolicyViolation("no copies available for borrowing")
			}
			return err
		}

		loan, err = s.createLoan(tx, user, &copy)
		if err != nil {
			return err
		}
		return s.reservations.FulfillForBorrow(tx, userID, bookID)
	})
	if err != nil {
		return nil, err
	}

	s.catalog.InvalidateAvailability(ctx, bookID)
	return loan, nil
}

// BorrowCopy checks out one specific copy, e.g. scanned at the desk
func (s *CirculationService) BorrowCopy(ctx context.Context, userID, copyID uint) (*models.Loan, error) {
	var loan *models.Loan
	var bookID uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := loadUserWithTier(tx, userID)
		if err != nil {
			return err
		}
		if user.MembershipStatus != models.MembershipStatusActive {
			return PolicyViolation("membership is %s", user.MembershipStatus)
		}

		var copy models.BookCopy
		if err := tx.First(&copy, copyID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NotFound("copy")
			}
			return err
		}
		bookID = copy.BookID

		if _, err := lockBook(tx, copy.BookID); err != nil {
			return err
		}

		if err := s.checkBorrowLimit(tx, user); err != nil {
			return err
		}

		if copy.Condition != models.CopyConditionGood {
			return PolicyViolation("this copy is not available")
		}
		var onLoan int64
		err = tx.Model(&models.Loan{}).
			Where("book_copy_id = ? AND status = ?", copy.ID, models.LoanStatusBorrowed).
			Count(&onLoan).Error
		if err != nil {
			return err
		}
		if onLoan > 0 {
			return PolicyViolation("this copy is not available")
		}

		loan, err = s.createLoan(tx, user, &copy)
		if err != nil {
			return err
		}
		return s.reservations.FulfillForBorrow(tx, userID, copy.BookID)
	})
	if err != nil {
		return nil, err
	}

	s.catalog.InvalidateAvailability(ctx, bookID)
	return loan, nil
}

func (s *CirculationService) checkBorrowLimit(tx *gorm.DB, user *models.User) error {
	var activeLoans int64
	err := tx.Model(&models.Loan{}).
		Where("user_id = ? AND status = ?", user.ID, models.LoanStatusBorrowed).
		Count(&activeLoans).Error
	if err != nil {
		return err
	}
	if max := MaxBooks(user); int(activeLoans) >= max {
		return PolicyViolation("you have reached your borrowing limit of %d books", max)
	}
	return nil
}

func (s *CirculationService) createLoan(tx *gorm.DB, user *models.User, copy *models.BookCopy) (*models.Loan, error) {
	today := models.DateOnly(time.Now())
	loan := &models.Loan{
		UserID:     user.ID,
		BookCopyID: copy.ID,
		BorrowDate: today,
		DueDate:    today.AddDate(0, 0, LoanPeriodDays(user)),
		Status:     models.LoanStatusBorrowed,
	}
	if err := tx.Create(loan).Error; err != nil {
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}
	return loan, nil
}

// Return closes a loan. A late return raises exactly one fine from the
// rule table and notifies the borrower; the freed copy is offered to the
// reservation queue head.
func (s *CirculationService) Return(ctx context.Context, loanID uint) (*models.Loan, *models.Fine, error) {
	var loan models.Loan
	var fine *models.Fine

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("BookCopy").First(&loan, loanID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NotFound("loan")
			}
			return err
		}
		if loan.Status != models.LoanStatusBorrowed {
			return StateConflict("loan is not currently borrowed")
		}

		if _, err := lockBook(tx, loan.BookCopy.BookID); err != nil {
			return err
		}

		today := models.DateOnly(time.Now())
		loan.ReturnDate = &today
		loan.Status = models.LoanStatusReturned
		if err := tx.Save(&loan).Error; err != nil {
			return fmt.Errorf("failed to update loan: %w", err)
		}

		if daysOverdue := daysBetween(loan.DueDate, today); daysOverdue > 0 {
			var err error
			fine, err = s.fines.CreateOverdueFine(ctx, tx, &loan, daysOverdue)
			if err != nil {
				return err
			}
			message := fmt.Sprintf("A fine of MVR %.2f has been applied for returning a book %d days late.", fine.Amount, daysOverdue)
			if err := s.notifications.Notify(tx, loan.UserID, models.NotificationTypeFineNotice, message); err != nil {
				return err
			}
		}

		return s.reservations.NotifyHeadIfReady(tx, loan.BookCopy.BookID)
	})
	if err != nil {
		return nil, nil, err
	}

	s.catalog.InvalidateAvailability(ctx, loan.BookCopy.BookID)
	return &loan, fine, nil
}

// daysBetween returns whole days from a to b, 0 when b is not after a
func daysBetween(a, b time.Time) int {
	d := int(models.DateOnly(b).Sub(models.DateOnly(a)).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// Extend postpones a loan's due date once by the user's extension
// allowance. Overdue loans, already-extended loans and books queued by
// other members are all rejected.
func (s *CirculationService) Extend(ctx context.Context, userID, loanID uint) (*models.Loan, error) {
	var loan models.Loan

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := loadUserWithTier(tx, userID)
		if err != nil {
			return err
		}

		err = tx.Preload("BookCopy").Where("id = ? AND user_id = ?", loanID, userID).First(&loan).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return NotFound("loan")
			}
			return err
		}
		if loan.Status != models.LoanStatusBorrowed {
			return StateConflict("loan is not currently borrowed")
		}

		today := models.DateOnly(time.Now())
		if models.DateOnly(loan.DueDate).Before(today) {
			return PolicyViolation("cannot extend an overdue loan")
		}

		var extensions int64
		if err := tx.Model(&models.LoanExtension{}).Where("loan_id = ?", loan.ID).Count(&extensions).Error; err != nil {
			return err
		}
		if extensions > 0 {
			return PolicyViolation("loan has already been extended")
		}

		var otherReservations int64
		err = tx.Model(&models.Reservation{}).
			Where("book_id = ? AND status = ? AND user_id <> ?", loan.BookCopy.BookID, models.ReservationStatusActive, userID).
			Count(&otherReservations).Error
		if err != nil {
			return err
		}
		if otherReservations > 0 {
			return PolicyViolation("book is reserved by another member")
		}

		extensionDays := ExtensionDays(user)
		if extensionDays <= 0 {
			return PolicyViolation("no extension days available")
		}

		loan.DueDate = loan.DueDate.AddDate(0, 0, extensionDays)
		if err := tx.Save(&loan).Error; err != nil {
			return fmt.Errorf("failed to extend loan: %w", err)
		}

		extension := models.LoanExtension{LoanID: loan.ID, ExtendedByDays: extensionDays}
		if err := tx.Create(&extension).Error; err != nil {
			return fmt.Errorf("failed to record extension: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// MarkCopyCondition records a staff condition change on a copy. Marking a
// copy lost or damaged while it is on loan raises the flat replacement
// fine against the borrower.
func (s *CirculationService) MarkCopyCondition(ctx context.Context, copyID uint, condition models.CopyCondition, notes string) (*models.Fine, error) {
	var fine *models.Fine
	var bookID uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var copy models.BookCopy
		if err := tx.Preload("Book").First(&copy, copyID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NotFound("copy")
			}
			return err
		}
		bookID = copy.BookID

		if _, err := lockBook(tx, copy.BookID); err != nil {
			return err
		}

		copy.Condition = condition
		if err := tx.Save(&copy).Error; err != nil {
			return fmt.Errorf("failed to update copy: %w", err)
		}

		entry := models.BookConditionLog{BookCopyID: copy.ID, Condition: condition, Notes: notes}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to log condition: %w", err)
		}

		if condition != models.CopyConditionLost && condition != models.CopyConditionDamaged {
			return nil
		}

		var active models.Loan
		err := tx.Where("book_copy_id = ? AND status = ?", copy.ID, models.LoanStatusBorrowed).First(&active).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}

		fineType := models.FineTypeLost
		if condition == models.CopyConditionDamaged {
			fineType = models.FineTypeDamaged
		}
		description := fmt.Sprintf("%s copy of %q (barcode %s)", condition, copy.Book.Title, copy.Barcode)

		fine, err = s.fines.CreateFlatFine(ctx, tx, active.UserID, &active.ID, fineType, copy.PurchasePrice, description)
		if err != nil {
			return err
		}
		message := fmt.Sprintf("A fine of MVR %.2f has been applied: %s.", fine.Amount, description)
		return s.notifications.Notify(tx, active.UserID, models.NotificationTypeFineNotice, message)
	})
	if err != nil {
		return nil, err
	}

	s.catalog.InvalidateAvailability(ctx, bookID)
	return fine, nil
}

// ListUserLoans returns the user's open loans in most-recent order plus
// their returned history.
func (s *CirculationService) ListUserLoans(ctx context.Context, userID uint) (current, history []models.Loan, err error) {
	err = s.db.WithContext(ctx).Preload("BookCopy.Book").Preload("Extensions").
		Where("user_id = ? AND status = ?", userID, models.LoanStatusBorrowed).
		Order("borrow_date desc").
		Find(&current).Error
	if err != nil {
		return nil, nil, err
	}

	err = s.db.WithContext(ctx).Preload("BookCopy.Book").
		Where("user_id = ? AND status = ?", userID, models.LoanStatusReturned).
		Order("return_date desc").
		Find(&history).Error
	if err != nil {
		return nil, nil, err
	}
	return current, history, nil
}

// ListActiveLoans returns all open loans ordered by due date, for the
// staff circulation desk, with the overdue count.
func (s *CirculationService) ListActiveLoans(ctx context.Context) ([]models.Loan, int64, error) {
	var loans []models.Loan
	err := s.db.WithContext(ctx).Preload("User").Preload("BookCopy.Book").
		Where("status = ?", models.LoanStatusBorrowed).
		Order("due_date").
		Find(&loans).Error
	if err != nil {
		return nil, 0, err
	}

	var overdue int64
	err = s.db.WithContext(ctx).Model(&models.Loan{}).
		Where("status = ? AND due_date < ?", models.LoanStatusBorrowed, models.DateOnly(time.Now())).
		Count(&overdue).Error
	if err != nil {
		return nil, 0, err
	}
	return loans, overdue, nil
}

// GetLoan loads a loan with its copy and book
func (s *CirculationService) GetLoan(ctx context.Context, loanID uint) (*models.Loan, error) {
	var loan models.Loan
	err := s.db.WithContext(ctx).Preload("BookCopy.Book").First(&loan, loanID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("loan")
		}
		return nil, err
	}
	return &loan, nil
}
