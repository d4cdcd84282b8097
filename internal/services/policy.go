package services

import "library_app_echo/internal/models"

// Membership policy lookups. Users without an assigned tier get the
// documented basic-tier defaults (14-day loan, 3 books, no extensions)
// instead of an error; this is the single fallback branch every caller
// goes through.

// LoanPeriodDays returns how many days the user may hold a copy
func LoanPeriodDays(user *models.User) int {
	if user.MembershipTier == nil {
		return models.DefaultLoanPeriodDays
	}
	return user.MembershipTier.LoanPeriodDays
}

// MaxBooks returns the user's concurrent borrowing limit
func MaxBooks(user *models.User) int {
	if user.MembershipTier == nil {
		return models.DefaultMaxBooks
	}
	return user.MembershipTier.MaxBooks
}

// ExtensionDays returns the one-time extension allowance, 0 meaning none
func ExtensionDays(user *models.User) int {
	if user.MembershipTier == nil {
		return models.DefaultExtensionDays
	}
	return user.MembershipTier.ExtensionDays
}
