package service

import (
	"context"

	"gatehouse/internal/domain/entity"
)

// IdentityProvider is one pluggable authentication strategy (password,
// external OAuth2, future strategies). Providers expose a uniform listing
// contract here; strategy-specific authentication methods live on the
// concrete types and are dispatched statically by the routes that own them.
type IdentityProvider interface {
	// ID returns the provider's stable identifier, e.g. "email" or "oauth".
	ID() string

	// ListMethods returns the publicly visible sign-in methods this
	// provider currently offers. A disabled provider returns an empty list.
	ListMethods(ctx context.Context) ([]entity.AuthMethod, error)
}
