package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	deliverycontext "gatehouse/internal/delivery/context"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
)

const (
	leasePrefix = "lease"

	defaultLeaseDuration = 10 * time.Second
)

// releaseScript deletes the lease only if the caller still owns it, so a
// slow holder can never release a lease that has expired and been reacquired
// by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

// lockService is a concrete implementation of the LockService interface using
// redis SET NX leases with a random ownership token.
type lockService struct {
	client *redis.Client
	logger *slog.Logger
}

// NewLockService is the constructor for lockService.
func NewLockService(client *redis.Client, logger *slog.Logger) service.LockService {
	return &lockService{client: client, logger: logger}
}

// WithLease runs fn while holding an exclusive lease on key.
func (s *lockService) WithLease(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token, err := s.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer s.release(ctx, key, token)

	return fn(ctx)
}

func (s *lockService) acquire(ctx context.Context, key string) (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, "generate lease token")
	}
	token := hex.EncodeToString(raw)

	acquired, err := s.client.SetNX(ctx, leasePrefix+":"+key, token, defaultLeaseDuration).Result()
	if err != nil {
		return "", errors.Wrap(err, "acquire lease")
	}
	if !acquired {
		return "", errors.WithStack(service.ErrLeaseHeld)
	}

	return token, nil
}

func (s *lockService) release(ctx context.Context, key, token string) {
	// Release must proceed even when the request context is already gone.
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), time.Second)
		defer cancel()
	}

	if err := releaseScript.Run(ctx, s.client, []string{leasePrefix + ":" + key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		deliverycontext.GetLoggerOrDefault(ctx, s.logger).Warn("Could not release lease on lock",
			slog.String("key", key), slog.Any("error", err))
	}
}
