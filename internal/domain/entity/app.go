package entity

import (
	"time"

	"github.com/google/uuid"
)

// App is a registered third-party client application permitted to request
// authorization-code or implicit grants from the first-party authorization
// server. The client secret is stored as a SHA-256 hash; the hash doubles as
// the HMAC key that binds issued authorization codes to this client.
type App struct {
	ID               uuid.UUID // The unique ID for this application record.
	Name             string    // Human-readable application name shown on consent/redirect pages.
	ClientID         string    // Public OAuth2 client identifier, unique across apps.
	ClientSecretHash string    // SHA-256 hash (base64) of the client secret presented on token exchange.
	RedirectURIs     []string  // Registered redirect URIs; matching is exact, no wildcard or prefix matching.
	Scopes           []string  // Scopes this application may request.
	Enabled          bool      // Disabled applications fail every authorize/token call.
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AllowsRedirectURI reports whether the given redirect URI is registered for
// this application. Comparison is exact string equality.
func (a *App) AllowsRedirectURI(uri string) bool {
	for _, registered := range a.RedirectURIs {
		if registered == uri {
			return true
		}
	}

	return false
}
