package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("expired session token")
)

const (
	tokenIssuer   = "authgate"
	tokenAudience = "authgate-web"

	opaqueTokenEntropy = 32
)

// SessionClaims is the signed content of a session cookie: the session and
// user identity plus both opaque credentials, with expiry carried in the
// registered claims so validation needs no database round-trip.
type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID    string `json:"sid"`
	UserID       string `json:"uid"`
	AccessToken  string `json:"act"`
	RefreshToken string `json:"rft"`
}

// SessionTokenPayload is the plain view of the fields embedded in a signed
// session token.
type SessionTokenPayload struct {
	SessionID    string
	UserID       string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Payload converts parsed claims back into a SessionTokenPayload.
func (c *SessionClaims) Payload() SessionTokenPayload {
	return SessionTokenPayload{
		SessionID:    c.SessionID,
		UserID:       c.UserID,
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		ExpiresAt:    c.ExpiresAt.Time,
	}
}

// NewOpaqueToken returns a fresh access/refresh credential: 32 bytes of
// crypto/rand entropy run through HMAC-SHA256 under the signing secret, so a
// leaked raw value cannot be replayed without the key. The function is
// synchronous; the caller always receives the resolved digest.
func NewOpaqueToken(secret string) (string, error) {
	raw := make([]byte, opaqueTokenEntropy)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating token entropy: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(raw)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// SignSessionToken serializes the payload into an HS256-signed token suitable
// for cookie storage. Rotating the secret invalidates every outstanding token.
func SignSessionToken(p SessionTokenPayload, secret string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(p.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		SessionID:    p.SessionID,
		UserID:       p.UserID,
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSessionToken verifies signature and expiry, returning the embedded
// claims. Expired-but-authentic tokens fail with ErrExpiredToken so callers
// can attempt a refresh; everything else fails with ErrInvalidToken.
func ParseSessionToken(tokenString, secret string) (*SessionClaims, error) {
	claims, err := parseSession(tokenString, secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseExpiredSessionToken verifies the signature but tolerates expiry. Only
// the refresh path uses it; an unauthentic token still fails.
func ParseExpiredSessionToken(tokenString, secret string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func parseSession(tokenString, secret string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithAudience(tokenAudience))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
