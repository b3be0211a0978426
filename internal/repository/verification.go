package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kylegrahammatzen/authgate/internal/model"
)

var ErrVerificationNotFound = errors.New("verification request not found")

// VerificationRepository handles email-verification-code persistence. Each
// user has at most one outstanding code; issuing overwrites the previous one.
type VerificationRepository struct {
	db *sql.DB
}

// NewVerificationRepository creates a new VerificationRepository.
func NewVerificationRepository(db *sql.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Upsert stores the code for a user, replacing any prior one atomically so
// concurrent resends are last-writer-wins without lost updates.
func (r *VerificationRepository) Upsert(ctx context.Context, v *model.VerificationRequest) error {
	query := `INSERT INTO verification_requests (user_id, code, expires_at)
	          VALUES (?, ?, ?)
	          ON DUPLICATE KEY UPDATE code = VALUES(code), expires_at = VALUES(expires_at)`

	_, err := r.db.ExecContext(ctx, query, v.UserID, v.Code, v.ExpiresAt)
	return err
}

// GetByUserID retrieves the outstanding code for a user.
func (r *VerificationRepository) GetByUserID(ctx context.Context, userID string) (*model.VerificationRequest, error) {
	query := `SELECT user_id, code, expires_at FROM verification_requests WHERE user_id = ?`

	v := &model.VerificationRequest{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&v.UserID, &v.Code, &v.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVerificationNotFound
		}
		return nil, err
	}
	return v, nil
}

// Delete consumes the code after a successful verification.
func (r *VerificationRepository) Delete(ctx context.Context, userID string) error {
	query := `DELETE FROM verification_requests WHERE user_id = ?`

	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
