package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"library_app_echo/internal/models"
)

// ErrInvalidCredentials is returned for any login failure; callers must
// not reveal whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

const sessionTTL = 5 * 24 * time.Hour

func sessionKey(token string) string {
	return "session:" + token
}

// AuthService verifies credentials and manages opaque session tokens
// stored in Redis. Permission sets are flattened from roles at session
// load so handlers check a plain capability set.
type AuthService struct {
	db    *gorm.DB
	cache *RedisCache
}

// NewAuthService creates an AuthService
func NewAuthService(db *gorm.DB, cache *RedisCache) *AuthService {
	return &AuthService{db: db, cache: cache}
}

// HashPassword returns the bcrypt hash to store for a new password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Login checks the credentials and opens a session, returning its token
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token := uuid.New().String()
	if err := s.cache.Set(ctx, sessionKey(token), user.ID, sessionTTL); err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}
	return token, &user, nil
}

// Logout destroys the session
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, sessionKey(token))
}

// SessionUser resolves a session token to its user, with membership tier
// and role permissions preloaded.
func (s *AuthService) SessionUser(ctx context.Context, token string) (*models.User, error) {
	var userID uint
	if err := s.cache.Get(ctx, sessionKey(token), &userID); err != nil {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Preload("MembershipTier").
		Preload("Roles.Permissions").
		First(&user, userID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return &user, nil
}
