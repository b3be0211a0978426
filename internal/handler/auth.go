package handler

import (
	"errors"
	"net/http"

	"github.com/kylegrahammatzen/authgate/internal/mailer"
	"github.com/kylegrahammatzen/authgate/internal/middleware"
	"github.com/kylegrahammatzen/authgate/internal/model"
	"github.com/kylegrahammatzen/authgate/internal/service"
)

// AuthHandler handles HTTP requests for registration, login, logout, and
// email verification.
type AuthHandler struct {
	service       *service.AuthService
	verification  *service.VerificationService
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, verification *service.VerificationService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		service:       svc,
		verification:  verification,
		secureCookies: secureCookies,
	}
}

// HandleRegister handles POST /api/v1/auth/register requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNameRequired),
			errors.Is(err, service.ErrEmailInvalid),
			errors.Is(err, service.ErrPasswordPolicy),
			errors.Is(err, service.ErrPasswordMismatch):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, service.ErrEmailTaken):
			writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
		case errors.Is(err, mailer.ErrDeliveryFailed):
			// Account created, code stored, email undeliverable.
			writeJSON(w, http.StatusCreated, map[string]any{
				"user":     user,
				"delivery": "failed",
			})
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

// HandleLogin handles POST /api/v1/auth/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			writeJSON(w, http.StatusUnauthorized, errorResponse(err.Error()))
		case errors.Is(err, service.ErrEmailNotVerified):
			writeJSON(w, http.StatusForbidden, errorResponse(err.Error()))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}

	middleware.SetSessionCookie(w, result.SignedToken, result.Session.ExpiresAt, h.secureCookies)
	writeJSON(w, http.StatusOK, map[string]any{"user": result.User})
}

// HandleLogout handles POST /api/v1/auth/logout requests. The session row is
// revoked and the cookie cleared; logout of an absent session is still a 204.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sessionID, ok := middleware.SessionIDFromContext(r.Context()); ok {
		if err := h.service.Logout(r.Context(), sessionID); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
			return
		}
	} else if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		// Logout did not pass through the gate; revoke whatever session the
		// cookie names. An unauthentic cookie has nothing to revoke.
		_ = h.service.LogoutByToken(r.Context(), cookie.Value)
	}

	middleware.ClearSessionCookie(w, h.secureCookies)
	w.WriteHeader(http.StatusNoContent)
}

// HandleVerifyEmail handles POST /api/v1/auth/verify-email requests. Success
// logs the user in by setting the session cookie.
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyEmailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.service.VerifyEmail(r.Context(), req.UserID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrCodeNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
		case errors.Is(err, service.ErrAlreadyVerified):
			writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
		case errors.Is(err, service.ErrCodeExpired), errors.Is(err, service.ErrCodeMismatch):
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse(err.Error()))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}

	middleware.SetSessionCookie(w, result.SignedToken, result.Session.ExpiresAt, h.secureCookies)
	writeJSON(w, http.StatusOK, map[string]any{"user": result.User})
}

// HandleResendCode handles POST /api/v1/auth/resend-code requests.
func (h *AuthHandler) HandleResendCode(w http.ResponseWriter, r *http.Request) {
	var req model.ResendCodeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	_, err := h.verification.Resend(r.Context(), req.UserID)
	if err != nil {
		var throttled *service.ThrottledError
		switch {
		case errors.As(err, &throttled):
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error":               "resend throttled",
				"retry_after_seconds": int(throttled.RetryAfter.Seconds()),
			})
		case errors.Is(err, service.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
		case errors.Is(err, service.ErrAlreadyVerified):
			writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
		case errors.Is(err, mailer.ErrDeliveryFailed):
			writeJSON(w, http.StatusAccepted, map[string]any{"delivery": "failed"})
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleMe handles GET /api/v1/auth/me requests.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, user)
}
