package service

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Cache.Get when the key does not exist or has expired.
var ErrCacheMiss = errors.New("cache entry not found")

// Cache is a namespaced key/value store with per-entry TTLs. Values are
// JSON-encoded by the implementation.
type Cache interface {
	// Put stores a value under namespace:key with the given TTL.
	// A zero TTL stores the value without expiry.
	Put(ctx context.Context, namespace, key string, value any, ttl time.Duration) error

	// Get fetches and decodes a value into out. Returns ErrCacheMiss if absent.
	Get(ctx context.Context, namespace, key string, out any) error

	// Del removes a key and reports whether an entry existed.
	Del(ctx context.Context, namespace, key string) (bool, error)
}
