package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatehouse/internal/domain/entity"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
)

func newTestStore(t *testing.T) (*miniredis.Miniredis, service.TokenStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewTokenStore(NewCache(client))
}

func TestTokenStore_CreateAndLookup(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	payload := entity.StateToken{Name: "github"}
	token, err := store.Create(ctx, service.TokenTypeState, payload, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Lookup succeeds any number of times before invalidation.
	for range 3 {
		var got entity.StateToken
		require.NoError(t, store.Lookup(ctx, service.TokenTypeState, token, &got))
		assert.Equal(t, payload, got)
	}
}

func TestTokenStore_LookupUnknownToken(t *testing.T) {
	_, store := newTestStore(t)

	var got entity.StateToken
	err := store.Lookup(context.Background(), service.TokenTypeState, "never-issued", &got)
	assert.True(t, errors.Is(err, service.ErrTokenNotFound))
}

func TestTokenStore_TypesArePartitioned(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, service.TokenTypeRegister, entity.RegisterToken{}, time.Minute)
	require.NoError(t, err)

	var got entity.RegisterToken
	err = store.Lookup(ctx, service.TokenTypeAssociate, token, &got)
	assert.True(t, errors.Is(err, service.ErrTokenNotFound))
}

func TestTokenStore_Invalidate(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, service.TokenTypeState, entity.StateToken{Name: "github"}, time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Invalidate(ctx, service.TokenTypeState, token))

	// After invalidation every lookup fails.
	var got entity.StateToken
	err = store.Lookup(ctx, service.TokenTypeState, token, &got)
	assert.True(t, errors.Is(err, service.ErrTokenNotFound))

	// A second invalidation observes "already revoked" rather than a no-op.
	err = store.Invalidate(ctx, service.TokenTypeState, token)
	assert.True(t, errors.Is(err, service.ErrTokenAlreadyRevoked))
}

func TestTokenStore_ConcurrentInvalidateRevokesExactlyOnce(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, service.TokenTypeState, entity.StateToken{Name: "github"}, time.Minute)
	require.NoError(t, err)

	// Two callers race to revoke the same token. The DEL is atomic on the
	// server, so exactly one wins and the other observes "already revoked".
	results := make(chan error, 2)
	for range 2 {
		go func() {
			results <- store.Invalidate(ctx, service.TokenTypeState, token)
		}()
	}

	var revoked, alreadyRevoked int
	for range 2 {
		switch err := <-results; {
		case err == nil:
			revoked++
		case errors.Is(err, service.ErrTokenAlreadyRevoked):
			alreadyRevoked++
		default:
			t.Fatalf("unexpected invalidate error: %v", err)
		}
	}
	assert.Equal(t, 1, revoked)
	assert.Equal(t, 1, alreadyRevoked)
}

func TestTokenStore_TTLExpiry(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, service.TokenTypeReset, entity.ResetPasswordToken{}, time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	var got entity.ResetPasswordToken
	err = store.Lookup(ctx, service.TokenTypeReset, token, &got)
	assert.True(t, errors.Is(err, service.ErrTokenNotFound))
}

func TestTokenStore_CleartextTokenNeverStored(t *testing.T) {
	mr, store := newTestStore(t)

	token, err := store.Create(context.Background(), service.TokenTypeState, entity.StateToken{Name: "github"}, time.Minute)
	require.NoError(t, err)

	for _, key := range mr.Keys() {
		assert.NotContains(t, key, token)
	}
}

func TestTokenStore_LeaseKeyIsStable(t *testing.T) {
	_, store := newTestStore(t)

	first := store.LeaseKey(service.TokenTypeRegister, "some-token")
	second := store.LeaseKey(service.TokenTypeRegister, "some-token")
	assert.Equal(t, first, second)
	assert.NotContains(t, first, "some-token")
	assert.NotEqual(t, first, store.LeaseKey(service.TokenTypeAssociate, "some-token"))
}
