package model

import "time"

// User represents a registered account in the database.
type User struct {
	ID                string
	Name              string
	Email             string
	PasswordHash      string
	EmailVerifiedAt   *time.Time
	PasswordChangedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Verified reports whether the user's email address has been confirmed.
func (u *User) Verified() bool {
	return u.EmailVerifiedAt != nil
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyEmailRequest carries a verification code submission.
type VerifyEmailRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

// ResendCodeRequest asks for a fresh verification code.
type ResendCodeRequest struct {
	UserID string `json:"user_id"`
}

// UserResponse represents user data safe for API responses (no sensitive fields).
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse strips a User down to its API-safe fields.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Verified:  u.Verified(),
		CreatedAt: u.CreatedAt,
	}
}
