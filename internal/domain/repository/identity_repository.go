// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"gatehouse/internal/domain/entity"
)

// Domain-specific errors for identity persistence.
// This allows the application layer to handle specific outcomes without depending on database-specific errors.
var (
	// ErrIdentityNotFound is returned when an identity is not found.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrIdentityConflict is returned when an identity violates the
	// (provider, provider_id) or (user_id, provider) uniqueness constraints.
	ErrIdentityConflict = errors.New("identity already exists")
)

// IdentityRepository defines the standard operations for identity persistence.
type IdentityRepository interface {
	// Create persists a new identity (e.g. email/password, linked OAuth account).
	Create(ctx context.Context, identity *entity.Identity) error

	// FindByProvider retrieves an identity by its provider and provider-specific ID.
	FindByProvider(ctx context.Context, provider, providerID string) (*entity.Identity, error)

	// FindByUserProvider retrieves the identity a user holds for the given provider.
	FindByUserProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.Identity, error)

	// ListByUser retrieves all identities linked to a user.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Identity, error)

	// UpdateSecretData replaces the secret material of a user's identity,
	// e.g. the password digest on a password change.
	UpdateSecretData(ctx context.Context, userID uuid.UUID, provider, secretData string) error

	// Delete unlinks a provider from a user.
	Delete(ctx context.Context, userID uuid.UUID, provider string) error
}
