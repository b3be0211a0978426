package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kylegrahammatzen/authgate/internal/model"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository handles session persistence operations.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session row.
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	query := `INSERT INTO sessions (id, user_id, access_token, refresh_token, created_at, expires_at, last_active_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.AccessToken, s.RefreshToken, s.CreatedAt, s.ExpiresAt, s.LastActiveAt)
	return err
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*model.Session, error) {
	query := `SELECT id, user_id, access_token, refresh_token, revoked_at, created_at, expires_at, last_active_at
	          FROM sessions WHERE id = ?`

	s := &model.Session{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.AccessToken, &s.RefreshToken,
		&s.RevokedAt, &s.CreatedAt, &s.ExpiresAt, &s.LastActiveAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

// UpdateTokens rotates the access token and extends expiry after a refresh.
func (r *SessionRepository) UpdateTokens(ctx context.Context, id, accessToken string, expiresAt, lastActiveAt time.Time) error {
	query := `UPDATE sessions SET access_token = ?, expires_at = ?, last_active_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, accessToken, expiresAt, lastActiveAt, id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Revoke marks the session invalid. The row is kept for audit, but a revoked
// session can never be refreshed back to life.
func (r *SessionRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, at, id)
	return err
}
