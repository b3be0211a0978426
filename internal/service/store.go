package service

import (
	"context"
	"time"

	"github.com/kylegrahammatzen/authgate/internal/model"
)

// Storage interfaces consumed by the services. The repository package provides
// the MySQL implementations; tests substitute in-memory fakes.

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	MarkVerified(ctx context.Context, id string, at time.Time) error
}

type SessionStore interface {
	Create(ctx context.Context, s *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	UpdateTokens(ctx context.Context, id, accessToken string, expiresAt, lastActiveAt time.Time) error
	Revoke(ctx context.Context, id string, at time.Time) error
}

type VerificationStore interface {
	Upsert(ctx context.Context, v *model.VerificationRequest) error
	GetByUserID(ctx context.Context, userID string) (*model.VerificationRequest, error)
	Delete(ctx context.Context, userID string) error
}
