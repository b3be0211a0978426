package service

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/kylegrahammatzen/authgate/internal/crypto"
	"github.com/kylegrahammatzen/authgate/internal/model"
	"github.com/kylegrahammatzen/authgate/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNameRequired       = errors.New("name is required")
	ErrEmailInvalid       = errors.New("a valid email is required")
	ErrPasswordPolicy     = errors.New("password must be at least 8 characters and contain a letter and a digit")
	ErrPasswordMismatch   = errors.New("password confirmation does not match")
	ErrEmailTaken         = errors.New("email already taken")
	ErrEmailNotVerified   = errors.New("email not verified")
)

// AuthService orchestrates registration, login, logout, and email
// verification across the credential hasher, verification issuer, and
// session lifecycle.
type AuthService struct {
	users        UserStore
	sessions     *SessionService
	verification *VerificationService
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, sessions *SessionService, verification *VerificationService) *AuthService {
	return &AuthService{
		users:        users,
		sessions:     sessions,
		verification: verification,
	}
}

// LoginResult carries everything the HTTP layer needs after a successful
// login or verification: the signed cookie value, the backing session, and
// the user.
type LoginResult struct {
	SignedToken string
	Session     *model.Session
	User        model.UserResponse
}

// Register creates an unverified account and issues its first verification
// code. When the code was stored but the email could not be delivered, the
// user is still returned alongside mailer.ErrDeliveryFailed so the caller can
// report the partial outcome.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.UserResponse, error) {
	if err := validateRegistration(req); err != nil {
		return model.UserResponse{}, err
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.UserResponse{}, err
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.UserResponse{}, ErrEmailTaken
		}
		return model.UserResponse{}, err
	}

	resp := model.NewUserResponse(user)

	if _, err := s.verification.Issue(ctx, user.ID); err != nil {
		// The account exists either way; delivery problems are the caller's
		// to report, storage problems too.
		return resp, err
	}

	return resp, nil
}

// Login authenticates credentials and mints a session. Unverified accounts
// are rejected with ErrEmailNotVerified; unknown emails and wrong passwords
// are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	match, err := crypto.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return LoginResult{}, err
	}
	if !match {
		return LoginResult{}, ErrInvalidCredentials
	}

	if !user.Verified() {
		return LoginResult{}, ErrEmailNotVerified
	}

	signed, session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		SignedToken: signed,
		Session:     session,
		User:        model.NewUserResponse(user),
	}, nil
}

// VerifyEmail consumes a verification code and, on success, mints the user's
// first session so the client is logged in immediately.
func (s *AuthService) VerifyEmail(ctx context.Context, userID, code string) (LoginResult, error) {
	if err := s.verification.Verify(ctx, userID, code); err != nil {
		return LoginResult{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return LoginResult{}, err
	}

	signed, session, err := s.sessions.Create(ctx, userID)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		SignedToken: signed,
		Session:     session,
		User:        model.NewUserResponse(user),
	}, nil
}

// Logout revokes the backing session; the HTTP layer clears the cookie.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Invalidate(ctx, sessionID)
}

// LogoutByToken revokes the session named by a signed cookie value, used when
// the request did not pass through the gate and no session is in context.
func (s *AuthService) LogoutByToken(ctx context.Context, signedToken string) error {
	return s.sessions.InvalidateToken(ctx, signedToken)
}

// GetUser retrieves a user by ID and returns safe user data.
func (s *AuthService) GetUser(ctx context.Context, userID string) (model.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	return model.NewUserResponse(user), nil
}

func validateRegistration(req model.RegisterRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return ErrNameRequired
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return ErrEmailInvalid
	}

	if !passwordMeetsPolicy(req.Password) {
		return ErrPasswordPolicy
	}
	if req.Password != req.PasswordConfirm {
		return ErrPasswordMismatch
	}

	return nil
}

func passwordMeetsPolicy(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}
