package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "gatehouse/internal/delivery/context"
	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
	"gatehouse/internal/usecase"
)

const (
	oauthConfigNamespace = "auth:oauth_provider"
	oauthConfigListKey   = "enabled"
	oauthConfigTTL       = 5 * time.Minute
)

// oauthConfigService implements the OAuthConfigProvider interface. Provider
// rows are admin-managed and read on every login, so they are cached with
// explicit invalidation rather than hit on each request.
type oauthConfigService struct {
	providerRepo repository.OAuthProviderRepository
	cache        service.Cache
	logger       *slog.Logger
}

// NewOAuthConfigProvider is the constructor for oauthConfigService.
func NewOAuthConfigProvider(
	providerRepo repository.OAuthProviderRepository,
	cache service.Cache,
	logger *slog.Logger,
) usecase.OAuthConfigProvider {
	return &oauthConfigService{
		providerRepo: providerRepo,
		cache:        cache,
		logger:       logger,
	}
}

// GetProvider resolves an enabled upstream provider by name, from cache when
// possible.
func (s *oauthConfigService) GetProvider(ctx context.Context, name string) (*entity.OAuthProvider, error) {
	var cached entity.OAuthProvider
	err := s.cache.Get(ctx, oauthConfigNamespace, name, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, service.ErrCacheMiss) {
		// A broken cache should not take logins down; fall through to the store.
		deliverycontext.GetLoggerOrDefault(ctx, s.logger).
			Warn("OAuth provider cache read failed", slog.String("name", name), slog.Any("error", err))
	}

	provider, err := s.providerRepo.FindEnabledByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrOAuthProviderNotFound) {
			return nil, errors.Wrapf(domainerrors.ErrOAuthProviderNotFound, "provider %q", name)
		}

		return nil, errors.Wrap(err, "find oauth provider")
	}

	if err := s.cache.Put(ctx, oauthConfigNamespace, name, provider, oauthConfigTTL); err != nil {
		deliverycontext.GetLoggerOrDefault(ctx, s.logger).
			Warn("OAuth provider cache write failed", slog.String("name", name), slog.Any("error", err))
	}

	return provider, nil
}

// ListEnabled returns every enabled upstream provider, from cache when
// possible.
func (s *oauthConfigService) ListEnabled(ctx context.Context) ([]*entity.OAuthProvider, error) {
	var cached []*entity.OAuthProvider
	if err := s.cache.Get(ctx, oauthConfigNamespace, oauthConfigListKey, &cached); err == nil {
		return cached, nil
	}

	providers, err := s.providerRepo.ListEnabled(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list oauth providers")
	}

	if err := s.cache.Put(ctx, oauthConfigNamespace, oauthConfigListKey, providers, oauthConfigTTL); err != nil {
		deliverycontext.GetLoggerOrDefault(ctx, s.logger).
			Warn("OAuth provider cache write failed", slog.Any("error", err))
	}

	return providers, nil
}

// InvalidateCache drops the cached configuration for a provider and the
// cached listing.
func (s *oauthConfigService) InvalidateCache(ctx context.Context, name string) error {
	if _, err := s.cache.Del(ctx, oauthConfigNamespace, name); err != nil {
		return errors.Wrap(err, "invalidate oauth provider cache")
	}
	if _, err := s.cache.Del(ctx, oauthConfigNamespace, oauthConfigListKey); err != nil {
		return errors.Wrap(err, "invalidate oauth provider list cache")
	}

	return nil
}
