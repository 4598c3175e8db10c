package service

import (
	"context"
	"errors"
	"time"
)

// TokenType partitions the ephemeral token keyspace. A token of one type can
// never be looked up as another.
type TokenType string

const (
	TokenTypeRegister  TokenType = "register"
	TokenTypeAssociate TokenType = "associate"
	TokenTypeReset     TokenType = "reset"
	TokenTypeState     TokenType = "state"
)

// Domain-specific errors for ephemeral token handling.
var (
	// ErrTokenNotFound is returned when a token is absent or expired.
	ErrTokenNotFound = errors.New("token not found or expired")
	// ErrTokenAlreadyRevoked is returned when invalidating a token that is
	// already gone, which is how a double-submit race becomes visible.
	ErrTokenAlreadyRevoked = errors.New("token already revoked")
)

// TokenStore holds one-time-use payloads addressed by a hash of an opaque
// bearer token. The cleartext token never reaches the backing store; only
// possession of the original token permits lookup.
//
// Lookup and Invalidate are two separate round trips, so callers that consume
// a token (read payload, perform side effect, invalidate) must wrap the whole
// sequence in a LockService lease keyed by LeaseKey to get at-most-once
// consumption.
type TokenStore interface {
	// Create stores the payload under a fresh random token with the given
	// TTL and returns the opaque token.
	Create(ctx context.Context, typ TokenType, payload any, ttl time.Duration) (string, error)

	// Lookup decodes the payload for the token into out.
	// Returns ErrTokenNotFound if absent or expired.
	Lookup(ctx context.Context, typ TokenType, token string, out any) error

	// Invalidate deletes the token. Returns ErrTokenAlreadyRevoked if no
	// entry existed, so callers can detect replay.
	Invalidate(ctx context.Context, typ TokenType, token string) error

	// LeaseKey returns a stable lock key for the token, derived from its
	// hash so the cleartext token never appears in lock names.
	LeaseKey(typ TokenType, token string) string
}
