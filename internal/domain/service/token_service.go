package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims are the custom claims carried by first-party access tokens.
// The token only proves possession; validity is always re-checked against the
// session row so revocation takes effect immediately.
type SessionClaims struct {
	SessionID uuid.UUID `json:"sid"`
	UserID    uuid.UUID `json:"uid"`
	Scopes    []string  `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// TokenService mints and parses the symmetric JWTs that reference sessions.
type TokenService interface {
	// GenerateAccessToken creates a signed access token for the session.
	GenerateAccessToken(sessionID, userID uuid.UUID, scopes []string) (string, error)

	// ValidateAccessToken verifies the signature and expiry of a token string.
	ValidateAccessToken(tokenString string) (*SessionClaims, error)

	// GenerateRefreshToken creates an opaque refresh token and the hash
	// stored alongside the session.
	GenerateRefreshToken() (token string, hash string, err error)

	// HashRefreshToken maps a presented refresh token to its stored hash.
	HashRefreshToken(token string) string

	// AccessTokenDuration returns the configured access token lifetime.
	AccessTokenDuration() time.Duration
}
