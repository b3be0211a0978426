package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/kylegrahammatzen/authgate/internal/crypto"
	"github.com/kylegrahammatzen/authgate/internal/model"
	"github.com/kylegrahammatzen/authgate/internal/routes"
)

type contextKey string

const (
	userIDKey    contextKey = "userID"
	sessionIDKey contextKey = "sessionID"
)

// SessionValidator is the slice of the session service the gate needs.
type SessionValidator interface {
	Validate(signedToken string) (*crypto.SessionClaims, error)
	Refresh(ctx context.Context, signedToken string) (string, *model.Session, error)
}

// Gate guards private routes. Public and unlisted paths pass through
// untouched; private paths need a valid session cookie. An expired cookie is
// transparently refreshed when the stored refresh credential still holds,
// re-issuing the cookie on the way through. Anything else redirects to the
// login URL with the original destination in redirect_uri.
func Gate(classifier *routes.Classifier, sessions SessionValidator, loginURL string, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !classifier.Classify(r.URL.Path).RequiresAuth() {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				redirectToLogin(w, r, loginURL)
				return
			}

			claims, err := sessions.Validate(cookie.Value)
			switch {
			case err == nil:
				// Session current, fall through.
			case errors.Is(err, crypto.ErrExpiredToken):
				signed, session, refreshErr := sessions.Refresh(r.Context(), cookie.Value)
				if refreshErr != nil {
					redirectToLogin(w, r, loginURL)
					return
				}
				SetSessionCookie(w, signed, session.ExpiresAt, secure)
				claims = &crypto.SessionClaims{SessionID: session.ID, UserID: session.UserID}
			default:
				redirectToLogin(w, r, loginURL)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			ctx = context.WithValue(ctx, sessionIDKey, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, loginURL string) {
	target := loginURL + "?redirect_uri=" + url.QueryEscape(r.URL.Path)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// SessionIDFromContext extracts the current session ID from the request context.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
