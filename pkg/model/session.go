package model

import "time"

// Session represents an authenticated browser session.
//
// The record lives server-side keyed by its opaque ID; the browser only
// holds the ID in a cookie. A session dies on logout, on takeover by a
// newer login for the same user, or passively on expiry.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsAdmin reports whether the session belongs to an admin user.
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
