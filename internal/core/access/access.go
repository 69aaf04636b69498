// Package access holds the authorization policy shared by the core services.
// Every check is a pure function of the session and the resource; callers
// surface a failed check as domain.ErrAccessDenied without further detail.
package access

import "github.com/logbook/logbook-service/internal/core/domain"

// CanManageAccounts reports whether the session may list, add, change or
// remove accounts.
func CanManageAccounts(s domain.Session) bool {
	return s.Role == domain.RoleAdmin
}

// CanDeleteAccount reports whether the session may delete target. Admins can
// never delete their own account.
func CanDeleteAccount(s domain.Session, target string) bool {
	return CanManageAccounts(s) && target != s.Username
}

// CanReadEntry reports whether the entry is visible to the session.
func CanReadEntry(s domain.Session, e *domain.Entry) bool {
	return s.Role == domain.RoleAdmin || e.OwnerUsername == s.Username
}

// CanMutateEntry reports whether the session may update or delete the entry.
func CanMutateEntry(s domain.Session, e *domain.Entry) bool {
	return s.Role == domain.RoleAdmin || e.OwnerUsername == s.Username
}
