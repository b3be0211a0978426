package service

import (
	"context"
	"testing"
	"time"

	"github.com/kylegrahammatzen/authgate/internal/mailer"
	"github.com/kylegrahammatzen/authgate/internal/model"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (*AuthService, *memStore, *fakeNotifier) {
	t.Helper()
	store := newMemStore()
	notifier := &fakeNotifier{}

	sessions := NewSessionService(userStoreView{store}, sessionStoreView{store}, testSecret, time.Hour, 48*time.Hour)
	verification := NewVerificationService(userStoreView{store}, verificationStoreView{store}, notifier, time.Hour, 5*time.Minute)

	return NewAuthService(userStoreView{store}, sessions, verification), store, notifier
}

func validRegistration() model.RegisterRequest {
	return model.RegisterRequest{
		Name:            "A",
		Email:           "a@x.com",
		Password:        "Abcdef12",
		PasswordConfirm: "Abcdef12",
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	tests := []struct {
		name    string
		mutate  func(*model.RegisterRequest)
		wantErr error
	}{
		{"empty name", func(r *model.RegisterRequest) { r.Name = "  " }, ErrNameRequired},
		{"empty email", func(r *model.RegisterRequest) { r.Email = "" }, ErrEmailInvalid},
		{"malformed email", func(r *model.RegisterRequest) { r.Email = "not-an-email" }, ErrEmailInvalid},
		{"short password", func(r *model.RegisterRequest) { r.Password = "Ab1"; r.PasswordConfirm = "Ab1" }, ErrPasswordPolicy},
		{"no digit", func(r *model.RegisterRequest) { r.Password = "Abcdefgh"; r.PasswordConfirm = "Abcdefgh" }, ErrPasswordPolicy},
		{"no letter", func(r *model.RegisterRequest) { r.Password = "12345678"; r.PasswordConfirm = "12345678" }, ErrPasswordPolicy},
		{"mismatched confirmation", func(r *model.RegisterRequest) { r.PasswordConfirm = "Abcdef13" }, ErrPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegistration()
			tt.mutate(&req)
			_, err := svc.Register(context.Background(), req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegisterSuccess(t *testing.T) {
	svc, store, notifier := newAuthFixture(t)

	user, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, "a@x.com", user.Email)
	require.False(t, user.Verified)

	// Exactly one notification carrying the 5-digit code.
	require.Len(t, notifier.sent, 1)
	require.Contains(t, notifier.sent[0].body, store.codes[user.ID].Code)
	require.Regexp(t, fiveDigits, store.codes[user.ID].Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validRegistration())
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterDeliveryFailure(t *testing.T) {
	svc, store, notifier := newAuthFixture(t)
	notifier.err = mailer.ErrDeliveryFailed

	user, err := svc.Register(context.Background(), validRegistration())
	require.ErrorIs(t, err, mailer.ErrDeliveryFailed)

	// Account creation is not blocked by delivery problems.
	require.NotEmpty(t, user.ID)
	require.Contains(t, store.users, user.ID)
	require.Contains(t, store.codes, user.ID)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), model.LoginRequest{Email: "nobody@x.com", Password: "Abcdef12"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), model.LoginRequest{Email: "a@x.com", Password: "Wrong123"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnverified(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), model.LoginRequest{Email: "a@x.com", Password: "Abcdef12"})
	require.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestRegisterVerifyLoginLogout(t *testing.T) {
	svc, store, _ := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	code := store.codes[user.ID].Code

	_, err = svc.VerifyEmail(ctx, user.ID, "00000")
	require.ErrorIs(t, err, ErrCodeMismatch)

	result, err := svc.VerifyEmail(ctx, user.ID, code)
	require.NoError(t, err)
	require.True(t, result.User.Verified)
	require.NotEmpty(t, result.SignedToken)
	require.Contains(t, store.sessions, result.Session.ID)

	login, err := svc.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "Abcdef12"})
	require.NoError(t, err)
	require.NotEmpty(t, login.SignedToken)

	require.NoError(t, svc.Logout(ctx, login.Session.ID))
	require.True(t, store.sessions[login.Session.ID].Revoked())
}

func TestGetUser(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	user, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	got, err := svc.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Email, got.Email)

	_, err = svc.GetUser(context.Background(), "no-such-user")
	require.ErrorIs(t, err, ErrUserNotFound)
}
