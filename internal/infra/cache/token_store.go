package cache

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
)

// tokenNamespace isolates ephemeral auth tokens from other cache users.
const tokenNamespace = "auth:token"

// tokenStore is a concrete implementation of the TokenStore interface on top
// of the generic cache. Only a SHA-256 hash of the opaque token is used as
// the storage key; the cleartext token never reaches the backing store.
type tokenStore struct {
	cache service.Cache
}

// NewTokenStore is the constructor for tokenStore.
func NewTokenStore(cache service.Cache) service.TokenStore {
	return &tokenStore{cache: cache}
}

// Create stores the payload under a fresh random token and returns the token.
func (s *tokenStore) Create(ctx context.Context, typ service.TokenType, payload any, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	if err := s.cache.Put(ctx, tokenNamespace, tokenKey(typ, token), payload, ttl); err != nil {
		return "", errors.Wrap(err, "store token payload")
	}

	return token, nil
}

// Lookup decodes the payload for the token into out.
func (s *tokenStore) Lookup(ctx context.Context, typ service.TokenType, token string, out any) error {
	if err := s.cache.Get(ctx, tokenNamespace, tokenKey(typ, token), out); err != nil {
		if errors.Is(err, service.ErrCacheMiss) {
			return errors.WithStack(service.ErrTokenNotFound)
		}

		return errors.Wrap(err, "lookup token payload")
	}

	return nil
}

// Invalidate deletes the token, surfacing a replayed delete as an error.
func (s *tokenStore) Invalidate(ctx context.Context, typ service.TokenType, token string) error {
	existed, err := s.cache.Del(ctx, tokenNamespace, tokenKey(typ, token))
	if err != nil {
		return errors.Wrap(err, "invalidate token")
	}
	if !existed {
		return errors.WithStack(service.ErrTokenAlreadyRevoked)
	}

	return nil
}

// LeaseKey returns a stable lock key for the token.
func (s *tokenStore) LeaseKey(typ service.TokenType, token string) string {
	return tokenNamespace + ":" + tokenKey(typ, token)
}

func tokenKey(typ service.TokenType, token string) string {
	sum := sha256.Sum256([]byte(token))

	return string(typ) + ":" + base64.RawURLEncoding.EncodeToString(sum[:])
}
