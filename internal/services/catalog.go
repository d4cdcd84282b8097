package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"library_app_echo/internal/models"
)

func availabilityCacheKey(bookID uint) string {
	return fmt.Sprintf("book_avail:%d", bookID)
}

// CatalogService exposes the book catalog and per-book availability.
// Availability is never stored on the copy; it is recomputed from loan
// existence and cached briefly.
type CatalogService struct {
	db    *gorm.DB
	cache *RedisCache
}

// NewCatalogService creates a CatalogService
func NewCatalogService(db *gorm.DB, cache *RedisCache) *CatalogService {
	return &CatalogService{db: db, cache: cache}
}

// GetBook loads a book with its publisher, section, authors and copies
func (s *CatalogService) GetBook(ctx context.Context, bookID uint) (*models.Book, error) {
	var book models.Book
	err := s.db.WithContext(ctx).
		Preload("Publisher").
		Preload("Section").
		Preload("Authors").
		Preload("Copies").
		First(&book, bookID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("book")
		}
		return nil, err
	}
	return &book, nil
}

// SearchBooks lists catalog entries matching an optional title/ISBN query
// and category filter, paginated.
func (s *CatalogService) SearchBooks(ctx context.Context, query, category string, page, perPage int) ([]models.Book, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	q := s.db.WithContext(ctx).Model(&models.Book{}).
		Preload("Publisher").
		Preload("Authors")
	if query != "" {
		q = q.Where("title ILIKE ? OR isbn = ?", "%"+query+"%", query)
	}
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	var books []models.Book
	err := q.Order("title").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&books).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search books: %w", err)
	}
	return books, total, nil
}

// AvailableCopiesCount returns how many copies of a book can be borrowed
// right now: condition good and no borrowed loan. Cached for a short
// window; every circulation mutation invalidates the entry.
func (s *CatalogService) AvailableCopiesCount(ctx context.Context, bookID uint) (int64, error) {
	return GetOrSet(s.cache, ctx, availabilityCacheKey(bookID), 30*time.Second, func() (int64, error) {
		return CountAvailableCopies(s.db.WithContext(ctx), bookID)
	})
}

// InvalidateAvailability drops the cached availability for a book
func (s *CatalogService) InvalidateAvailability(ctx context.Context, bookID uint) {
	_ = s.cache.Delete(ctx, availabilityCacheKey(bookID))
}

// CountAvailableCopies runs the availability query on the given handle,
// which may be an open transaction for a read that must be consistent
// with in-flight circulation changes.
func CountAvailableCopies(tx *gorm.DB, bookID uint) (int64, error) {
	var n int64
	err := tx.Model(&models.BookCopy{}).
		Where("book_id = ? AND condition = ?", bookID, models.CopyConditionGood).
		Where("NOT EXISTS (SELECT 1 FROM loans WHERE loans.book_copy_id = book_copies.id AND loans.status = ? AND loans.deleted_at IS NULL)", models.LoanStatusBorrowed).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count available copies: %w", err)
	}
	return n, nil
}
