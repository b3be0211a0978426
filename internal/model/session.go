package model

import "time"

// Session represents one authenticated browser session. A user may hold any
// number of concurrent sessions. Rows are revoked on logout, never deleted.
type Session struct {
	ID           string
	UserID       string
	AccessToken  string
	RefreshToken string
	RevokedAt    *time.Time
	CreatedAt    time.Time
	ExpiresAt    time.Time
	LastActiveAt time.Time
}

// Revoked reports whether the session was explicitly invalidated.
func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}
