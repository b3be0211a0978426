package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/kylegrahammatzen/authgate/internal/mailer"
	"github.com/kylegrahammatzen/authgate/internal/model"
	"github.com/kylegrahammatzen/authgate/internal/repository"
)

var (
	ErrAlreadyVerified = errors.New("email already verified")
	ErrCodeNotFound    = errors.New("no verification code outstanding")
	ErrCodeExpired     = errors.New("verification code expired")
	ErrCodeMismatch    = errors.New("verification code mismatch")
)

// ThrottledError rejects a resend attempted before the cooldown has passed.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("resend throttled, retry in %s", e.RetryAfter.Round(time.Second))
}

// VerificationService issues, throttles, and validates email-verification
// codes. Each user holds at most one outstanding code; issuing overwrites the
// previous one.
type VerificationService struct {
	users    UserStore
	codes    VerificationStore
	notifier mailer.Notifier

	codeTTL  time.Duration
	cooldown time.Duration
}

// NewVerificationService creates a VerificationService.
func NewVerificationService(users UserStore, codes VerificationStore, notifier mailer.Notifier, codeTTL, cooldown time.Duration) *VerificationService {
	return &VerificationService{
		users:    users,
		codes:    codes,
		notifier: notifier,
		codeTTL:  codeTTL,
		cooldown: cooldown,
	}
}

// Issue generates a fresh 5-digit code for the user, stores it with the
// configured lifetime, and emails it. A delivery failure surfaces as
// mailer.ErrDeliveryFailed after the code is stored, so callers can report
// "code generated but undeliverable" without losing the code.
func (s *VerificationService) Issue(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	code, err := randomCode()
	if err != nil {
		return "", err
	}

	if err := s.codes.Upsert(ctx, &model.VerificationRequest{
		UserID:    userID,
		Code:      code,
		ExpiresAt: time.Now().Add(s.codeTTL),
	}); err != nil {
		return "", err
	}

	subject := "Your verification code"
	body := fmt.Sprintf("Hi %s,\n\nYour verification code is %s. It expires in %s.\n", user.Name, code, s.codeTTL)
	if err := s.notifier.Send(ctx, user.Email, subject, body); err != nil {
		return code, err
	}

	return code, nil
}

// Resend regenerates the user's code unless the current one is still inside
// the cooldown, in which case it fails with a ThrottledError carrying the
// remaining wait.
func (s *VerificationService) Resend(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if user.Verified() {
		return "", ErrAlreadyVerified
	}

	existing, err := s.codes.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrVerificationNotFound) {
		return "", err
	}
	if existing != nil {
		if now := time.Now(); now.Add(s.cooldown).Before(existing.ExpiresAt) {
			return "", &ThrottledError{RetryAfter: existing.ExpiresAt.Sub(now) - s.cooldown}
		}
	}

	return s.Issue(ctx, userID)
}

// Verify consumes the user's outstanding code. Each failure mode is a
// distinct error kind; on success the user is marked verified and the code
// row is deleted so it can never be replayed.
func (s *VerificationService) Verify(ctx context.Context, userID, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.Verified() {
		return ErrAlreadyVerified
	}

	req, err := s.codes.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrVerificationNotFound) {
			return ErrCodeNotFound
		}
		return err
	}

	if req.Expired(time.Now()) {
		return ErrCodeExpired
	}
	if req.Code != code {
		return ErrCodeMismatch
	}

	if err := s.users.MarkVerified(ctx, userID, time.Now()); err != nil {
		return err
	}
	return s.codes.Delete(ctx, userID)
}

// randomCode returns a uniformly random 5-digit code in [10000, 99999].
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(90000))
	if err != nil {
		return "", fmt.Errorf("generating verification code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+10000), nil
}
