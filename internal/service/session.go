package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kylegrahammatzen/authgate/internal/crypto"
	"github.com/kylegrahammatzen/authgate/internal/model"
	"github.com/kylegrahammatzen/authgate/internal/repository"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrSessionInvalid = errors.New("session invalid or expired")
)

// SessionService manages the session lifecycle: minting signed tokens on
// login, validating them statelessly, refreshing expired ones against the
// stored refresh credential, and revoking them on logout.
type SessionService struct {
	users    UserStore
	sessions SessionStore

	secret        string
	duration      time.Duration
	refreshWindow time.Duration
}

// NewSessionService creates a SessionService. duration bounds the access
// window of a session; refreshWindow bounds how long after creation a session
// may still be refreshed.
func NewSessionService(users UserStore, sessions SessionStore, secret string, duration, refreshWindow time.Duration) *SessionService {
	return &SessionService{
		users:         users,
		sessions:      sessions,
		secret:        secret,
		duration:      duration,
		refreshWindow: refreshWindow,
	}
}

// Create verifies the user exists, mints access and refresh tokens, stores
// the session row, and returns the signed cookie token alongside the row.
func (s *SessionService) Create(ctx context.Context, userID string) (string, *model.Session, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, err
	}

	accessToken, err := crypto.NewOpaqueToken(s.secret)
	if err != nil {
		return "", nil, err
	}
	refreshToken, err := crypto.NewOpaqueToken(s.secret)
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	session := &model.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.duration),
		LastActiveAt: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return "", nil, err
	}

	signed, err := crypto.SignSessionToken(payloadFor(session), s.secret)
	if err != nil {
		return "", nil, err
	}

	return signed, session, nil
}

// Validate checks signature and expiry of a signed token without touching
// storage. Expired-but-authentic tokens fail with crypto.ErrExpiredToken so
// the caller can attempt a refresh.
func (s *SessionService) Validate(signedToken string) (*crypto.SessionClaims, error) {
	return crypto.ParseSessionToken(signedToken, s.secret)
}

// Refresh exchanges an expired-but-authentic token for a fresh one. The
// stored session must exist, be unrevoked, present the same refresh token,
// and still be inside the refresh window; otherwise Refresh fails closed with
// ErrSessionInvalid. On success the access token rotates and the expiry is
// strictly extended.
func (s *SessionService) Refresh(ctx context.Context, signedToken string) (string, *model.Session, error) {
	claims, err := crypto.ParseExpiredSessionToken(signedToken, s.secret)
	if err != nil {
		return "", nil, ErrSessionInvalid
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return "", nil, ErrSessionInvalid
		}
		return "", nil, err
	}

	now := time.Now()
	switch {
	case session.Revoked():
		return "", nil, ErrSessionInvalid
	case session.UserID != claims.UserID:
		return "", nil, ErrSessionInvalid
	case session.RefreshToken != claims.RefreshToken:
		return "", nil, ErrSessionInvalid
	case now.After(session.CreatedAt.Add(s.refreshWindow)):
		return "", nil, ErrSessionInvalid
	}

	accessToken, err := crypto.NewOpaqueToken(s.secret)
	if err != nil {
		return "", nil, err
	}

	session.AccessToken = accessToken
	session.ExpiresAt = now.Add(s.duration)
	session.LastActiveAt = now

	if err := s.sessions.UpdateTokens(ctx, session.ID, accessToken, session.ExpiresAt, now); err != nil {
		return "", nil, err
	}

	signed, err := crypto.SignSessionToken(payloadFor(session), s.secret)
	if err != nil {
		return "", nil, err
	}

	return signed, session, nil
}

// Invalidate revokes the backing session row. The cookie is cleared by the
// HTTP layer; revocation here keeps a logged-out session from being refreshed
// back to life even if the token value leaks.
func (s *SessionService) Invalidate(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID, time.Now())
}

// InvalidateToken revokes the session a signed token points at. Expiry does
// not matter, only authenticity: logging out of an already-expired session
// still revokes the row.
func (s *SessionService) InvalidateToken(ctx context.Context, signedToken string) error {
	claims, err := crypto.ParseExpiredSessionToken(signedToken, s.secret)
	if err != nil {
		return ErrSessionInvalid
	}
	return s.Invalidate(ctx, claims.SessionID)
}

func payloadFor(session *model.Session) crypto.SessionTokenPayload {
	return crypto.SessionTokenPayload{
		SessionID:    session.ID,
		UserID:       session.UserID,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    session.ExpiresAt,
	}
}
