// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"log/slog"

	deliverycontext "gatehouse/internal/delivery/context"
	"gatehouse/internal/domain/entity"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
	"gatehouse/internal/usecase"
)

// identityRegistry implements the IdentityRegistry interface. Providers are
// registered once at boot; after that the map is only read, so no locking is
// needed.
type identityRegistry struct {
	providers map[string]service.IdentityProvider
	order     []string
	logger    *slog.Logger
}

// NewIdentityRegistry is the constructor for identityRegistry. The given
// providers are registered in order; a duplicate id aborts construction,
// which in turn aborts startup.
func NewIdentityRegistry(logger *slog.Logger, providers ...service.IdentityProvider) (usecase.IdentityRegistry, error) {
	registry := &identityRegistry{
		providers: make(map[string]service.IdentityProvider, len(providers)),
		logger:    logger,
	}
	for _, provider := range providers {
		if err := registry.Register(provider); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// Register adds a provider keyed by its stable id.
func (r *identityRegistry) Register(provider service.IdentityProvider) error {
	id := provider.ID()
	if _, exists := r.providers[id]; exists {
		return errors.Errorf("identity provider %q is already registered", id)
	}

	r.providers[id] = provider
	r.order = append(r.order, id)
	r.logger.Info("Registered identity provider", slog.String("provider", id))

	return nil
}

// ListMethods fans out to every registered provider, in registration order,
// and concatenates the results. A disabled provider contributes an empty
// list; a failing provider fails the whole listing.
func (r *identityRegistry) ListMethods(ctx context.Context) ([]entity.AuthMethod, error) {
	logger := deliverycontext.GetLoggerOrDefault(ctx, r.logger)

	var methods []entity.AuthMethod
	for _, id := range r.order {
		providerMethods, err := r.providers[id].ListMethods(ctx)
		if err != nil {
			logger.Error("Failed to list auth methods",
				slog.String("provider", id), slog.Any("error", err))

			return nil, errors.Wrapf(err, "list methods for provider %q", id)
		}
		methods = append(methods, providerMethods...)
	}

	return methods, nil
}
