package shared

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims carried by the backend session token.
type SessionClaims struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Expired reports whether the token has an expiry in the past relative to now.
func (c *SessionClaims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

// Identity returns the best available user identifier.
func (c *SessionClaims) Identity() string {
	switch {
	case c.UserID != "":
		return c.UserID
	case c.Subject != "":
		return c.Subject
	default:
		return c.Email
	}
}

// ParseSessionClaims decodes the claims of a session token without verifying its signature.
//
// The backend owns the signing key; the client only reads expiry and identity
// so it can refuse to send a stale token.
func ParseSessionClaims(token string) (*SessionClaims, error) {
	if token == "" {
		return nil, ErrNoCredential
	}

	claims := &SessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: session token is not a JWT: %v", ErrInvalidInput, err)
	}
	return claims, nil
}

// CheckSessionToken returns a precondition error when token is empty or a JWT that has expired.
//
// Opaque tokens that are not JWTs pass; only the backend can judge them.
func CheckSessionToken(token string, now time.Time) error {
	if token == "" {
		return ErrNoCredential
	}
	claims, err := ParseSessionClaims(token)
	if err != nil {
		return nil
	}
	if claims.Expired(now) {
		return fmt.Errorf("%w at %s", ErrTokenExpired, claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	return nil
}
