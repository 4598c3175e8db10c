package entity

import (
	"time"

	"github.com/google/uuid"
)

// OAuthProvider is the stored configuration of one upstream OAuth2 identity
// provider (e.g. GitHub). Rows are admin-managed; the auth flow only reads
// enabled providers.
type OAuthProvider struct {
	ID                    uuid.UUID
	Name                  string // Stable provider name used in "oauth:<name>" identity providers.
	ClientID              string
	ClientSecret          string
	AuthorizeURL          string
	TokenURL              string
	InfoURL               string
	InfoIDProperty        string // Dot-separated path to the external id in the userinfo response; "id" when empty.
	ImageSrc              string // Optional logo shown next to the login button.
	IsRegistrationEnabled bool   // Whether unknown external accounts may register a new user.
	IsEnabled             bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
