package model

import "time"

// UserRole represents the role of a user in the system.
type UserRole string

const (
	// RoleStaff is a standard clinic staff account.
	RoleStaff UserRole = "staff"
	// RoleAdmin has elevated permissions for server administration.
	RoleAdmin UserRole = "admin"
)

// User represents a login account with lockout state.
//
// LoginAttempts counts consecutive failed logins since the last reset.
// LockedUntil, when set and in the future, blocks all login attempts.
// CurrentSessionID points at the account's sole authorized session record;
// writing a new value implicitly invalidates the previous one.
type User struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	PasswordHash     []byte     `json:"-"`
	Role             UserRole   `json:"role"`
	LoginAttempts    int        `json:"login_attempts"`
	LockedUntil      *time.Time `json:"locked_until,omitempty"`
	CurrentSessionID string     `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	LastLoginAt      time.Time  `json:"last_login_at"`
}

// IsLocked reports whether the account is locked at the given instant.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// LockExpired reports whether a previously set lock window has passed.
func (u *User) LockExpired(now time.Time) bool {
	return u.LockedUntil != nil && !u.LockedUntil.After(now)
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
