package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"gatehouse/internal/domain/entity"
)

// Domain-specific errors for session persistence.
var (
	// ErrSessionNotFound is returned when a session is not found.
	ErrSessionNotFound = errors.New("session not found")
)

// SessionRepository defines the standard operations for session persistence.
// Sessions are append-plus-update only; revocation sets revoked_at, rows are
// never deleted.
type SessionRepository interface {
	// Create persists a new session.
	Create(ctx context.Context, session *entity.Session) error

	// FindByID retrieves a session by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error)

	// FindByRefreshTokenHash retrieves a session by its stored refresh token hash.
	FindByRefreshTokenHash(ctx context.Context, hash string) (*entity.Session, error)

	// RotateRefreshToken atomically swaps the refresh token hash of an
	// active session, returning the refreshed session. Fails with
	// ErrSessionNotFound when the old hash does not match an active session.
	RotateRefreshToken(ctx context.Context, oldHash, newHash string) (*entity.Session, error)

	// Revoke marks a single session as revoked and clears its refresh token hash.
	// Fails with ErrSessionNotFound if the session does not exist or is already revoked.
	Revoke(ctx context.Context, id uuid.UUID) error

	// RevokeAllByUser revokes every active session of a user. When
	// exceptSessionID is non-nil that session is spared, so a password
	// change can keep the caller logged in while logging out everyone else.
	RevokeAllByUser(ctx context.Context, userID uuid.UUID, exceptSessionID *uuid.UUID) error

	// ListByUser retrieves a user's sessions, newest first. When activeOnly
	// is set, revoked and expired sessions are filtered out.
	ListByUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*entity.Session, error)
}
