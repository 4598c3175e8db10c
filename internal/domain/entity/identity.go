package entity

import (
	"time"

	"github.com/google/uuid"
)

// Well-known identity providers. External OAuth providers are namespaced
// under the "oauth:" prefix, e.g. "oauth:github".
const (
	ProviderEmail       = "email"
	ProviderOAuthPrefix = "oauth:"
)

// Identity represents a single way a user can authenticate.
// A user's email/password is one record, while a linked GitHub account is another.
// Unique on (user_id, provider) and on (provider, provider_id): an external
// account maps to exactly one local user, and a user holds at most one
// identity per provider.
type Identity struct {
	ID         uuid.UUID // The unique ID for this specific identity record itself.
	UserID     uuid.UUID // Links this identity to the User it belongs to.
	Provider   string    // The authentication provider, e.g., "email" or "oauth:github".
	ProviderID string    // The user's unique ID at the provider (the email address, or the external account id).
	SecretData string    // Provider-specific secret material; the password digest when Provider is "email".
	CreatedAt  time.Time // Timestamp of when this identity was linked to the user account.
	UpdatedAt  time.Time // Timestamp of the last modification, e.g. a password change.
}
