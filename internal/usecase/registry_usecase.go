// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"gatehouse/internal/domain/entity"
	"gatehouse/internal/domain/service"
)

// IdentityRegistry composes the pluggable authentication strategies. It holds
// no authentication logic itself; providers are registered once at boot and
// the registry only dispatches and aggregates.
type IdentityRegistry interface {
	// Register adds a provider keyed by its stable id. A duplicate id is a
	// configuration error and fails, which aborts startup.
	Register(provider service.IdentityProvider) error

	// ListMethods fans out to every registered provider and concatenates
	// the publicly visible sign-in methods.
	ListMethods(ctx context.Context) ([]entity.AuthMethod, error)
}

// PasswordProvider is the password authentication strategy.
type PasswordProvider interface {
	service.IdentityProvider

	// PreCheck inspects the identity for an email address before a
	// password is collected. It returns a register token when the address
	// is unknown and self-registration is open, or (nil, nil) when the
	// identity exists and password sign-in can proceed.
	PreCheck(ctx context.Context, email string) (entity.AuthToken, error)

	// Authenticate verifies the password and returns a session token.
	// The error never distinguishes an unknown address from a wrong
	// password.
	Authenticate(ctx context.Context, email, password string) (entity.AuthToken, error)
}

// OAuthIdentityProvider is the external OAuth2 authentication strategy.
type OAuthIdentityProvider interface {
	service.IdentityProvider

	// GenerateAuthorizeURL builds the upstream authorize URL for a named
	// provider, minting the CSRF state token bound to that name.
	GenerateAuthorizeURL(ctx context.Context, name string) (authorizeURL string, err error)

	// Authenticate consumes the state token, exchanges the code upstream
	// and maps the external account to a local identity. Returns a session
	// token for a known identity or a register token when the provider
	// permits registration.
	Authenticate(ctx context.Context, ip, state, code, redirectURI string) (entity.AuthToken, error)

	// Associate performs the same exchange but links the external account
	// to an already-authenticated user instead of signing anyone in.
	Associate(ctx context.Context, userID uuid.UUID, state, code, redirectURI string) error
}

// OAuthConfigProvider resolves stored upstream provider configurations,
// cached with explicit invalidation.
type OAuthConfigProvider interface {
	// GetProvider resolves an enabled upstream provider by name.
	GetProvider(ctx context.Context, name string) (*entity.OAuthProvider, error)

	// ListEnabled returns every enabled upstream provider.
	ListEnabled(ctx context.Context) ([]*entity.OAuthProvider, error)

	// InvalidateCache drops the cached configuration for a provider, e.g.
	// after an admin edit.
	InvalidateCache(ctx context.Context, name string) error
}
