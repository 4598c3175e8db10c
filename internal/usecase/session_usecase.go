package usecase

import (
	"context"

	"github.com/google/uuid"

	"gatehouse/internal/domain/entity"
)

// CreateSessionInput carries everything the session manager needs to mint a
// standing session after a successful authentication.
type CreateSessionInput struct {
	UserID uuid.UUID
	IP     string
	Scopes []string   // empty for full first-party sessions
	AppID  *uuid.UUID // nil for first-party sessions
}

// SessionTokens is the bearer material handed to the client.
type SessionTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // access token lifetime in seconds
}

// Principal is the authenticated context resolved from a bearer token.
type Principal struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	Scopes    []string
}

// SessionManager issues, refreshes, validates and revokes sessions. Every
// authenticated bearer token ultimately references a session row, so
// revocation takes effect on the next validation regardless of token expiry.
type SessionManager interface {
	// CreateSession inserts a session row and mints its token pair.
	CreateSession(ctx context.Context, input CreateSessionInput) (*SessionTokens, error)

	// ValidateToken resolves an access token to a principal backed by a
	// non-revoked, non-expired session.
	ValidateToken(ctx context.Context, accessToken string) (*Principal, error)

	// Refresh rotates the refresh token and mints a new token pair.
	Refresh(ctx context.Context, refreshToken string) (*SessionTokens, error)

	// RevokeSession revokes one session owned by the user.
	RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error

	// RevokeUserSessions revokes every active session of the user, sparing
	// exceptSessionID when non-nil.
	RevokeUserSessions(ctx context.Context, userID uuid.UUID, exceptSessionID *uuid.UUID) error

	// ListSessions returns the user's active sessions, newest first.
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error)
}
