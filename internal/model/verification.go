package model

import "time"

// VerificationRequest is the single outstanding email-verification code for a
// user. Issuing a new code overwrites the previous row.
type VerificationRequest struct {
	UserID    string
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the code is past its lifetime at the given instant.
func (v *VerificationRequest) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
