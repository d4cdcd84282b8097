package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"library_app_echo/internal/middleware"
	"library_app_echo/internal/models"
	"library_app_echo/internal/services"
)

// AdminHandler serves back-office administration: membership tiers,
// branches, member accounts and role grants.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// ListTiers returns all membership tiers
func (h *AdminHandler) ListTiers(c echo.Context) error {
	var tiers []models.MembershipTier
	if err := h.db.Order("monthly_fee").Find(&tiers).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tiers)
}

// UpsertTier creates or updates the tier for a membership type
func (h *AdminHandler) UpsertTier(c echo.Context) error {
	var tier models.MembershipTier
	if err := c.Bind(&tier); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if tier.LoanPeriodDays <= 0 || tier.MaxBooks < 1 {
		return services.PolicyViolation("loan period and book limit must be positive")
	}

	var existing models.MembershipTier
	err := h.db.Where("type = ?", tier.Type).First(&existing).Error
	switch err {
	case nil:
		tier.ID = existing.ID
		if err := h.db.Save(&tier).Error; err != nil {
			return err
		}
	case gorm.ErrRecordNotFound:
		if err := h.db.Create(&tier).Error; err != nil {
			return err
		}
	default:
		return err
	}
	return c.JSON(http.StatusOK, tier)
}

// ListBranches returns all branches with their sections
func (h *AdminHandler) ListBranches(c echo.Context) error {
	var branches []models.Branch
	if err := h.db.Preload("Sections").Preload("Manager").Find(&branches).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, branches)
}

// CreateBranch adds a branch
func (h *AdminHandler) CreateBranch(c echo.Context) error {
	var branch models.Branch
	if err := c.Bind(&branch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.db.Create(&branch).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, branch)
}

type createMemberRequest struct {
	Name           string                `json:"name"`
	Email          string                `json:"email"`
	Phone          string                `json:"phone"`
	Password       string                `json:"password"`
	MembershipType models.MembershipType `json:"membership_type"`
}

// CreateMember registers a member account with an optional tier
func (h *AdminHandler) CreateMember(c echo.Context) error {
	var req createMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	hash, err := services.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := models.User{
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		PasswordHash:     hash,
		MembershipStatus: models.MembershipStatusActive,
	}

	if req.MembershipType != "" {
		var tier models.MembershipTier
		if err := h.db.Where("type = ?", req.MembershipType).First(&tier).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return services.NotFound("membership tier")
			}
			return err
		}
		user.MembershipTierID = &tier.ID
	}

	if err := h.db.Create(&user).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

type grantRoleRequest struct {
	Role string `json:"role"`
}

// GrantRole assigns a role to a user
func (h *AdminHandler) GrantRole(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req grantRoleRequest
	if err := c.Bind(&req); err != nil || req.Role == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "role is required")
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return services.NotFound("user")
		}
		return err
	}

	var role models.Role
	if err := h.db.Where("name = ?", req.Role).First(&role).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return services.NotFound("role")
		}
		return err
	}

	if err := h.db.Model(&user).Association("Roles").Append(&role); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "granted"})
}

// MyNotifications lists the user's notification inbox
func (h *AdminHandler) MyNotifications(c echo.Context) error {
	user := middleware.CurrentUser(c)
	var notifications []models.UserNotification
	err := h.db.Where("user_id = ?", user.ID).Order("sent_at desc").Limit(50).Find(&notifications).Error
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notifications)
}
