package models

import (
	"time"

	"gorm.io/gorm"
)

// MembershipStatus represents the state of a user's membership
type MembershipStatus string

const (
	MembershipStatusActive    MembershipStatus = "active"
	MembershipStatusExpired   MembershipStatus = "expired"
	MembershipStatusSuspended MembershipStatus = "suspended"
)

// User represents a library member or staff account
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name         string `gorm:"type:varchar(255)" json:"name"`
	Email        string `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Phone        string `gorm:"type:varchar(50)" json:"phone"`
	PasswordHash string `gorm:"type:varchar(255)" json:"-"`

	MembershipTierID *uint            `json:"membership_tier_id"`
	MembershipTier   *MembershipTier  `gorm:"foreignKey:MembershipTierID" json:"membership_tier,omitempty"`
	MembershipStatus MembershipStatus `gorm:"type:varchar(20);default:'active'" json:"membership_status"`
	MembershipExpiry *time.Time       `gorm:"type:date" json:"membership_expiry"`

	// Relationships
	Roles         []Role             `gorm:"many2many:user_roles;" json:"roles,omitempty"`
	Loans         []Loan             `gorm:"foreignKey:UserID" json:"loans,omitempty"`
	Reservations  []Reservation      `gorm:"foreignKey:UserID" json:"reservations,omitempty"`
	Fines         []Fine             `gorm:"foreignKey:UserID" json:"fines,omitempty"`
	Notifications []UserNotification `gorm:"foreignKey:UserID" json:"notifications,omitempty"`
}

// Role groups permissions for staff and manager accounts
type Role struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name        string       `gorm:"type:varchar(50);uniqueIndex" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
}

// Permission is a single capability token, e.g. "circulation.manage"
type Permission struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Code        string `gorm:"type:varchar(100);uniqueIndex" json:"code"`
	Description string `gorm:"type:text" json:"description"`
}

// Permission codes gating staff and manager operations
const (
	PermCirculationManage = "circulation.manage"
	PermCatalogManage     = "catalog.manage"
	PermFinesManage       = "fines.manage"
	PermReservationsAdmin = "reservations.admin"
	PermMembershipManage  = "membership.manage"
	PermBranchManage      = "branch.manage"
)

// PermissionCodes flattens the user's roles into a capability set.
// Roles and their permissions must be preloaded.
func (u *User) PermissionCodes() map[string]bool {
	codes := make(map[string]bool)
	for _, role := range u.Roles {
		for _, perm := range role.Permissions {
			codes[perm.Code] = true
		}
	}
	return codes
}

// HasRole reports whether the user holds the named role
func (u *User) HasRole(name string) bool {
	for _, role := range u.Roles {
		if role.Name == name {
			return true
		}
	}
	return false
}
