package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
)

// redisCache is a concrete implementation of the Cache interface. Entries are
// JSON documents under "namespace:key" with a per-entry TTL enforced by redis.
type redisCache struct {
	client *redis.Client
}

// NewCache is the constructor for redisCache.
func NewCache(client *redis.Client) service.Cache {
	return &redisCache{client: client}
}

// Put stores a JSON-encoded value under namespace:key with the given TTL.
func (c *redisCache) Put(ctx context.Context, namespace, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "marshal cache value")
	}

	if err := c.client.Set(ctx, namespace+":"+key, payload, ttl).Err(); err != nil {
		return errors.Wrap(err, "set cache entry")
	}

	return nil
}

// Get fetches and decodes a value. The backing store's TTL expiry is
// authoritative; an expired entry is simply a miss.
func (c *redisCache) Get(ctx context.Context, namespace, key string, out any) error {
	payload, err := c.client.Get(ctx, namespace+":"+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return errors.WithStack(service.ErrCacheMiss)
		}

		return errors.Wrap(err, "get cache entry")
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return errors.Wrap(err, "unmarshal cache value")
	}

	return nil
}

// Del removes a key and reports whether an entry existed.
func (c *redisCache) Del(ctx context.Context, namespace, key string) (bool, error) {
	deleted, err := c.client.Del(ctx, namespace+":"+key).Result()
	if err != nil {
		return false, errors.Wrap(err, "delete cache entry")
	}

	return deleted > 0, nil
}
