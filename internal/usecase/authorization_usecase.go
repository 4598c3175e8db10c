package usecase

import (
	"context"
	"errors"

	"github.com/go-jose/go-jose/v4"
	"github.com/google/uuid"
)

// OAuth2 wire errors. The token endpoint maps every client-caused failure to
// one of these two, per the OAuth2 error vocabulary; nothing more specific
// ever leaks.
var (
	ErrOAuthInvalidRequest = errors.New("invalid_request")
	ErrOAuthInvalidClient  = errors.New("invalid_client")
)

// OAuth2 response types supported by the first-party authorization server.
const (
	ResponseTypeCode     = "code"
	ResponseTypeImplicit = "id_token token"
)

// AuthorizeInput is an authenticated authorization request from a
// third-party client application.
type AuthorizeInput struct {
	UserID       uuid.UUID
	ResponseType string
	ClientID     string
	RedirectURI  string
	Scope        string
	State        string
}

// AuthorizeOutput carries the redirect URL the user agent should be sent to,
// with either the authorization code (query) or the implicit tokens
// (fragment) bound in.
type AuthorizeOutput struct {
	RedirectURL string
}

// TokenExchangeInput is a client-authenticated authorization-code exchange.
type TokenExchangeInput struct {
	ClientID     string
	ClientSecret string
	Code         string
	RedirectURI  string
	IP           string
}

// TokenExchangeOutput is the OAuth2 token endpoint response body.
type TokenExchangeOutput struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
	IDToken     string `json:"id_token,omitempty"`
}

// DiscoveryDocument is the OIDC provider metadata served at
// /.well-known/openid-configuration.
type DiscoveryDocument struct {
	Issuer                           string   `json:"issuer"`
	AuthorizationEndpoint            string   `json:"authorization_endpoint"`
	TokenEndpoint                    string   `json:"token_endpoint"`
	JWKSURI                          string   `json:"jwks_uri"`
	ResponseTypesSupported           []string `json:"response_types_supported"`
	SubjectTypesSupported            []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported []string `json:"id_token_signing_alg_values_supported"`
}

// AuthorizationUsecase is the first-party OAuth2/OIDC authorization server:
// the authorize and token halves of the code grant, the implicit grant, and
// the stateless discovery surface.
type AuthorizationUsecase interface {
	// Authorize validates the client and redirect URI and produces the
	// redirect carrying a code or, for the implicit flow, the tokens.
	Authorize(ctx context.Context, input AuthorizeInput) (*AuthorizeOutput, error)

	// Exchange validates the client credentials, consumes the code and
	// mints a scoped session. Failures surface as the OAuth2 wire errors
	// invalid_request/invalid_client only.
	Exchange(ctx context.Context, input TokenExchangeInput) (*TokenExchangeOutput, error)

	// Discovery returns the OIDC provider metadata.
	Discovery() *DiscoveryDocument

	// JWKS returns the published public signing keys.
	JWKS() jose.JSONWebKeySet
}

// IDTokenIssuer signs OIDC ID tokens. Domain claims (name, roles, team,
// division) are read at sign time, never cached, since membership can change
// between logins.
type IDTokenIssuer interface {
	Issue(ctx context.Context, userID uuid.UUID, clientID string) (string, error)
}
