package impl

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/errors"
	"gatehouse/internal/usecase"
)

// countingProviderRepo tracks store reads so tests can observe cache hits.
type countingProviderRepo struct {
	providers map[string]*entity.OAuthProvider
	finds     int
	lists     int
}

func (r *countingProviderRepo) Create(_ context.Context, provider *entity.OAuthProvider) error {
	if provider.ID == uuid.Nil {
		provider.ID = uuid.New()
	}
	r.providers[provider.Name] = provider

	return nil
}

func (r *countingProviderRepo) FindEnabledByName(_ context.Context, name string) (*entity.OAuthProvider, error) {
	r.finds++
	provider, ok := r.providers[name]
	if !ok || !provider.IsEnabled {
		return nil, repository.ErrOAuthProviderNotFound
	}
	found := *provider

	return &found, nil
}

func (r *countingProviderRepo) ListEnabled(context.Context) ([]*entity.OAuthProvider, error) {
	r.lists++
	var out []*entity.OAuthProvider
	for _, provider := range r.providers {
		if provider.IsEnabled {
			found := *provider
			out = append(out, &found)
		}
	}

	return out, nil
}

func newOAuthConfigFixture(t *testing.T) (usecase.OAuthConfigProvider, *countingProviderRepo) {
	t.Helper()

	repo := &countingProviderRepo{providers: make(map[string]*entity.OAuthProvider)}
	require.NoError(t, repo.Create(context.Background(), &entity.OAuthProvider{
		Name:      "github",
		ClientID:  "cid",
		IsEnabled: true,
	}))

	cache, _, _ := newTestRedis(t)

	return NewOAuthConfigProvider(repo, cache, newDiscardLogger()), repo
}

func TestOAuthConfig_GetProviderCaches(t *testing.T) {
	service, repo := newOAuthConfigFixture(t)
	ctx := context.Background()

	for range 3 {
		provider, err := service.GetProvider(ctx, "github")
		require.NoError(t, err)
		assert.Equal(t, "github", provider.Name)
	}

	assert.Equal(t, 1, repo.finds)
}

func TestOAuthConfig_GetProviderUnknown(t *testing.T) {
	service, _ := newOAuthConfigFixture(t)

	_, err := service.GetProvider(context.Background(), "bitbucket")
	assert.True(t, errors.Is(err, domainerrors.ErrOAuthProviderNotFound))
}

func TestOAuthConfig_InvalidateCacheForcesReload(t *testing.T) {
	service, repo := newOAuthConfigFixture(t)
	ctx := context.Background()

	provider, err := service.GetProvider(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, "cid", provider.ClientID)

	// An admin edit behind the cache's back stays invisible...
	repo.providers["github"].ClientID = "rotated"
	provider, err = service.GetProvider(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, "cid", provider.ClientID)

	// ...until the cache is invalidated.
	require.NoError(t, service.InvalidateCache(ctx, "github"))
	provider, err = service.GetProvider(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, "rotated", provider.ClientID)
}

func TestOAuthConfig_ListEnabledCaches(t *testing.T) {
	service, repo := newOAuthConfigFixture(t)
	ctx := context.Background()

	for range 2 {
		providers, err := service.ListEnabled(ctx)
		require.NoError(t, err)
		assert.Len(t, providers, 1)
	}
	assert.Equal(t, 1, repo.lists)

	// Invalidation drops the listing too.
	require.NoError(t, service.InvalidateCache(ctx, "github"))
	_, err := service.ListEnabled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.lists)
}
