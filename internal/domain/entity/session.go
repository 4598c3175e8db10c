package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session represents a standing authenticated context, optionally scoped to a
// third-party application. Sessions are never hard-deleted; revocation sets
// RevokedAt so the row remains as an audit trail.
type Session struct {
	ID               uuid.UUID  // The unique ID for this session record.
	UserID           uuid.UUID  // Links this session to the User it belongs to.
	AppID            *uuid.UUID // The third-party application this session is scoped to; nil for first-party sessions.
	RefreshTokenHash string     // SHA-256 hash of the raw refresh token; cleared on revocation.
	Scopes           []string   // OAuth scopes granted to this session; empty for full first-party sessions.
	IP               string     // Client IP recorded at creation, for the user's session listing.
	CreatedAt        time.Time  // Timestamp of when this session was created (i.e., when the user logged in).
	RefreshedAt      time.Time  // Timestamp of the last refresh-token rotation.
	ExpiresAt        *time.Time // Absolute expiry; nil means the session does not expire on its own.
	RevokedAt        *time.Time // Set when the session is revoked; a set value always invalidates the session.
}

// Active reports whether the session is still usable at the given instant.
// A session is valid iff it has not been revoked and has not expired.
func (s *Session) Active(now time.Time) bool {
	if s.RevokedAt != nil {
		return false
	}
	if s.ExpiresAt != nil && !s.ExpiresAt.After(now) {
		return false
	}

	return true
}
