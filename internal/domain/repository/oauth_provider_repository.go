package repository

import (
	"context"
	"errors"

	"gatehouse/internal/domain/entity"
)

// Domain-specific errors for upstream OAuth provider persistence.
var (
	// ErrOAuthProviderNotFound is returned when a provider is unknown or disabled.
	ErrOAuthProviderNotFound = errors.New("oauth provider not found")
)

// OAuthProviderRepository defines the read operations over the stored
// upstream OAuth2 provider configurations.
type OAuthProviderRepository interface {
	// Create persists a new provider configuration.
	Create(ctx context.Context, provider *entity.OAuthProvider) error

	// FindEnabledByName retrieves an enabled provider by name.
	// Disabled providers are treated as absent.
	FindEnabledByName(ctx context.Context, name string) (*entity.OAuthProvider, error)

	// ListEnabled retrieves every enabled provider.
	ListEnabled(ctx context.Context) ([]*entity.OAuthProvider, error)
}
