package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"library_app_echo/internal/models"
)

const fineRulesCacheKey = "fine_rules"

// FineService calculates and manages fines against the configured rule
// table, and records fine payments taken at the desk.
type FineService struct {
	db    *gorm.DB
	cache *RedisCache
}

// NewFineService creates a FineService
func NewFineService(db *gorm.DB, cache *RedisCache) *FineService {
	return &FineService{db: db, cache: cache}
}

// Rules returns the fine rule table, cached briefly since it is
// reference data that changes only through admin screens.
func (s *FineService) Rules(ctx context.Context) ([]models.FineRule, error) {
	return GetOrSet(s.cache, ctx, fineRulesCacheKey, 5*time.Minute, func() ([]models.FineRule, error) {
		var rules []models.FineRule
		if err := s.db.WithContext(ctx).Order("fine_type, delay_from").Find(&rules).Error; err != nil {
			return nil, fmt.Errorf("failed to load fine rules: %w", err)
		}
		return rules, nil
	})
}

// InvalidateRules drops the cached rule table after admin changes
func (s *FineService) InvalidateRules(ctx context.Context) {
	_ = s.cache.Delete(ctx, fineRulesCacheKey)
}

// CreateRule adds a fine rule and drops the cached table
func (s *FineService) CreateRule(ctx context.Context, rule *models.FineRule) error {
	if rule.DelayFrom < 1 || rule.DelayTo < rule.DelayFrom {
		return PolicyViolation("invalid day range %d-%d", rule.DelayFrom, rule.DelayTo)
	}
	if err := s.db.WithContext(ctx).Create(rule).Error; err != nil {
		return fmt.Errorf("failed to create fine rule: %w", err)
	}
	s.InvalidateRules(ctx)
	return nil
}

// DeleteRule removes a fine rule and drops the cached table
func (s *FineService) DeleteRule(ctx context.Context, ruleID uint) error {
	res := s.db.WithContext(ctx).Delete(&models.FineRule{}, ruleID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete fine rule: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return NotFound("fine rule")
	}
	s.InvalidateRules(ctx)
	return nil
}

// CalculateOverdueFine returns the charge for a return this many days late
func (s *FineService) CalculateOverdueFine(ctx context.Context, daysOverdue int) (float64, error) {
	rules, err := s.Rules(ctx)
	if err != nil {
		return 0, err
	}
	return models.OverdueFineAmount(rules, daysOverdue), nil
}

// CreateOverdueFine raises a fine for a late return inside the caller's
// transaction. The caller guarantees daysOverdue > 0.
func (s *FineService) CreateOverdueFine(ctx context.Context, tx *gorm.DB, loan *models.Loan, daysOverdue int) (*models.Fine, error) {
	amount, err := s.CalculateOverdueFine(ctx, daysOverdue)
	if err != nil {
		return nil, err
	}

	fine := models.Fine{
		UserID:      loan.UserID,
		LoanID:      &loan.ID,
		Amount:      amount,
		FineType:    models.FineTypeOverdue,
		Description: fmt.Sprintf("Late return fee for %d days", daysOverdue),
		FineDate:    time.Now(),
	}
	if err := tx.Create(&fine).Error; err != nil {
		return nil, fmt.Errorf("failed to create fine: %w", err)
	}
	return &fine, nil
}

// CreateFlatFine raises a lost/damaged charge: copy price plus the
// configured processing fee.
func (s *FineService) CreateFlatFine(ctx context.Context, tx *gorm.DB, userID uint, loanID *uint, fineType models.FineType, copyPrice float64, description string) (*models.Fine, error) {
	rules, err := s.Rules(ctx)
	if err != nil {
		return nil, err
	}

	fine := models.Fine{
		UserID:      userID,
		LoanID:      loanID,
		Amount:      models.FlatFineAmount(rules, fineType, copyPrice),
		FineType:    fineType,
		Description: description,
		FineDate:    time.Now(),
	}
	if err := tx.Create(&fine).Error; err != nil {
		return nil, fmt.Errorf("failed to create fine: %w", err)
	}
	return &fine, nil
}

// ListUnpaid returns a user's outstanding fines and their total
func (s *FineService) ListUnpaid(ctx context.Context, userID uint) ([]models.Fine, float64, error) {
	var fines []models.Fine
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND paid = ?", userID, false).
		Order("fine_date desc").
		Find(&fines).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list fines: %w", err)
	}

	var total float64
	for _, f := range fines {
		total += f.Amount
	}
	return fines, total, nil
}

// RecordPayment marks a fine paid and writes the matching payment record.
// Staff operation; processedByID is the staff account taking the payment.
func (s *FineService) RecordPayment(ctx context.Context, fineID, processedByID uint, method models.PaymentMethod, notes string) (*models.Payment, error) {
	var payment *models.Payment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var fine models.Fine
		if err := tx.First(&fine, fineID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NotFound("fine")
			}
			return err
		}
		if fine.Paid {
			return StateConflict("fine is already paid")
		}

		now := time.Now()
		fine.MarkPaid(now)
		if err := tx.Save(&fine).Error; err != nil {
			return fmt.Errorf("failed to mark fine paid: %w", err)
		}

		payment = &models.Payment{
			UserID:        fine.UserID,
			Purpose:       models.PaymentPurposeFine,
			RelatedID:     &fine.ID,
			Amount:        fine.Amount,
			Status:        models.PaymentStatusCompleted,
			Method:        method,
			TransactionID: uuid.New().String(),
			PaymentDate:   now,
			ProcessedByID: &processedByID,
			Notes:         notes,
		}
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}
