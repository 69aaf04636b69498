package domain

import (
	"strings"
	"time"
)

// Role is the authorization level of an account.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Account is a registered identity. Username is immutable once created and is
// unique ignoring case.
type Account struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	FullName     string    `json:"namaLengkap"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AccountPatch carries the optional fields an admin may change on an account.
// Nil fields are left untouched.
type AccountPatch struct {
	Password *string
	Role     *Role
	FullName *string
}

// Empty reports whether the patch changes nothing.
func (p AccountPatch) Empty() bool {
	return p.Password == nil && p.Role == nil && p.FullName == nil
}

// FoldUsername returns the key used for case-insensitive uniqueness.
func FoldUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
