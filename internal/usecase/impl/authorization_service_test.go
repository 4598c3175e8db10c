package impl

import (
	"context"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/errors"
	"gatehouse/internal/infra/auth"
	"gatehouse/internal/usecase"
)

const (
	testClientID     = "app-123"
	testClientSecret = "s3cr3t-client-secret"
	testRedirectURI  = "https://rp.example.com/callback"
)

type authorizationFixture struct {
	service  usecase.AuthorizationUsecase
	appRepo  *fakeAppRepo
	sessions usecase.SessionManager
	app      *entity.App
}

func newAuthorizationFixture(t *testing.T) *authorizationFixture {
	t.Helper()

	cfg := newTestConfig()
	cache, _, lock := newTestRedis(t)

	tokenService, err := auth.NewJWTService(cfg)
	require.NoError(t, err)
	sessions := NewSessionManager(cfg, newFakeSessionRepo(), tokenService, newDiscardLogger())

	keys, err := auth.NewSigningKeyService(cfg)
	require.NoError(t, err)

	appRepo := &fakeAppRepo{}
	app := &entity.App{
		Name:             "Test RP",
		ClientID:         testClientID,
		ClientSecretHash: HashClientSecret(testClientSecret),
		RedirectURIs:     []string{testRedirectURI},
		Scopes:           []string{"openid", "profile"},
		Enabled:          true,
	}
	require.NoError(t, appRepo.Create(context.Background(), app))

	service, err := NewAuthorizationService(cfg, appRepo, cache, lock, sessions, fakeIDTokenIssuer{}, keys, newDiscardLogger())
	require.NoError(t, err)

	return &authorizationFixture{
		service:  service,
		appRepo:  appRepo,
		sessions: sessions,
		app:      app,
	}
}

// authorize runs the code grant and extracts the minted code from the
// redirect query.
func (f *authorizationFixture) authorize(t *testing.T, userID uuid.UUID, scope string) string {
	t.Helper()

	out, err := f.service.Authorize(context.Background(), usecase.AuthorizeInput{
		UserID:       userID,
		ClientID:     testClientID,
		RedirectURI:  testRedirectURI,
		ResponseType: usecase.ResponseTypeCode,
		Scope:        scope,
		State:        "xyz",
	})
	require.NoError(t, err)

	redirect, err := url.Parse(out.RedirectURL)
	require.NoError(t, err)
	code := redirect.Query().Get("code")
	require.NotEmpty(t, code)
	assert.Equal(t, "xyz", redirect.Query().Get("state"))

	return code
}

func TestAuthorizationService_CodeGrantRoundTrip(t *testing.T) {
	fixture := newAuthorizationFixture(t)
	userID := uuid.New()

	code := fixture.authorize(t, userID, "openid profile")

	out, err := fixture.service.Exchange(context.Background(), usecase.TokenExchangeInput{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Code:         code,
		RedirectURI:  testRedirectURI,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", out.TokenType)
	assert.Equal(t, "openid profile", out.Scope)
	assert.NotEmpty(t, out.AccessToken)
	assert.NotEmpty(t, out.IDToken)

	// The access token resolves to a session scoped to the grant.
	principal, err := fixture.sessions.ValidateToken(context.Background(), out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, principal.UserID)
	assert.Equal(t, []string{"openid", "profile"}, principal.Scopes)
}

func TestAuthorizationService_ExchangeWithoutOpenIDScopeOmitsIDToken(t *testing.T) {
	fixture := newAuthorizationFixture(t)

	code := fixture.authorize(t, uuid.New(), "profile")

	out, err := fixture.service.Exchange(context.Background(), usecase.TokenExchangeInput{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Code:         code,
		RedirectURI:  testRedirectURI,
	})
	require.NoError(t, err)
	assert.Empty(t, out.IDToken)
}

func TestAuthorizationService_AuthorizeUnknownClient(t *testing.T) {
	fixture := newAuthorizationFixture(t)

	_, err := fixture.service.Authorize(context.Background(), usecase.AuthorizeInput{
		UserID:       uuid.New(),
		ClientID:     "nobody",
		RedirectURI:  testRedirectURI,
		ResponseType: usecase.ResponseTypeCode,
	})
	assert.True(t, errors.Is(err, domainerrors.ErrClientNotFound))
}

func TestAuthorizationService_AuthorizeUnregisteredRedirectURI(t *testing.T) {
	fixture := newAuthorizationFixture(t)

	_, err := fixture.service.Authorize(context.Background(), usecase.AuthorizeInput{
		UserID:       uuid.New(),
		ClientID:     testClientID,
		RedirectURI:  "https://evil.example.com/callback",
		ResponseType: usecase.ResponseTypeCode,
	})
	assert.True(t, errors.Is(err, domainerrors.ErrRedirectURIMismatch))
}

func TestAuthorizationService_AuthorizeScopeNotPermitted(t *testing.T) {
	fixture := newAuthorizationFixture(t)

	_, err := fixture.service.Authorize(context.Background(), usecase.AuthorizeInput{
		UserID:       uuid.New(),
		ClientID:     testClientID,
		RedirectURI:  testRedirectURI,
		ResponseType: usecase.ResponseTypeCode,
		Scope:        "openid admin",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}

func TestAuthorizationService_ExchangeWrongSecret(t *testing.T) {
	fixture := newAuthorizationFixture(t)

	code := fixture.authorize(t, uuid.New(), "openid")

	_, err := fixture.service.Exchange(context.Background(), usecase.TokenExchangeInput{
		ClientID:     testClientID,
		ClientSecret: "guessed-wrong",
		Code:         code,
		RedirectURI:  testRedirectURI,
	})
	assert.True(t, errors.Is(err, usecase.ErrOAuthInvalidClient))
}

func TestAuthorizationService_ExchangeUnknownClient(t *testing.T) {
	fixture := newAuthorizationFixture(t)

	_, err := fixture.service.Exchange(context.Background(), usecase.TokenExchangeInput{
		ClientID:     "nobody",
		ClientSecret: testClientSecret,
		Code:         "anything",
		RedirectURI:  testRedirectURI,
	})
	assert.True(t, errors.Is(err, usecase.ErrOAuthInvalidClient))
}

func TestAuthorizationService_ExchangeRedirectURIMustMatchGrant(t *testing.T) {
	fixture := newAuthorizationFixture(t)

	code := fixture.authorize(t, uuid.New(), "openid")

	_, err := fixture.service.Exchange(context.Background(), usecase.TokenExchangeInput{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Code:         code,
		RedirectURI:  "https://rp.example.com/other-callback",
	})
	assert.True(t, errors.Is(err, usecase.ErrOAuthInvalidRequest))
}

func TestAuthorizationService_CodeIsSingleUse(t *testing.T) {
	fixture := newAuthorizationFixture(t)

	code := fixture.authorize(t, uuid.New(), "openid")

	input := usecase.TokenExchangeInput{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Code:         code,
		RedirectURI:  testRedirectURI,
	}
	_, err := fixture.service.Exchange(context.Background(), input)
	require.NoError(t, err)

	_, err = fixture.service.Exchange(context.Background(), input)
	assert.True(t, errors.Is(err, usecase.ErrOAuthInvalidRequest))
}

func TestAuthorizationService_ConcurrentExchangeRedeemsExactlyOnce(t *testing.T) {
	fixture := newAuthorizationFixture(t)

	code := fixture.authorize(t, uuid.New(), "openid")

	input := usecase.TokenExchangeInput{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Code:         code,
		RedirectURI:  testRedirectURI,
	}

	// Two clients present the same code at once. The per-code lease
	// serializes them, so one redeems it and the other fails regardless of
	// whether it lost the lease or found the code already consumed.
	type result struct {
		out *usecase.TokenExchangeOutput
		err error
	}
	results := make(chan result, 2)
	for range 2 {
		go func() {
			out, err := fixture.service.Exchange(context.Background(), input)
			results <- result{out: out, err: err}
		}()
	}

	var redeemed, rejected int
	for range 2 {
		switch r := <-results; {
		case r.err == nil:
			require.NotNil(t, r.out)
			assert.NotEmpty(t, r.out.AccessToken)
			redeemed++
		case errors.Is(r.err, usecase.ErrOAuthInvalidRequest):
			rejected++
		default:
			t.Fatalf("unexpected exchange error: %v", r.err)
		}
	}
	assert.Equal(t, 1, redeemed)
	assert.Equal(t, 1, rejected)
}

func TestAuthorizationService_CodeIsBoundToClient(t *testing.T) {
	fixture := newAuthorizationFixture(t)

	// A second registered client with the same redirect URI.
	otherSecret := "other-client-secret"
	require.NoError(t, fixture.appRepo.Create(context.Background(), &entity.App{
		Name:             "Other RP",
		ClientID:         "app-456",
		ClientSecretHash: HashClientSecret(otherSecret),
		RedirectURIs:     []string{testRedirectURI},
		Scopes:           []string{"openid"},
		Enabled:          true,
	}))

	code := fixture.authorize(t, uuid.New(), "openid")

	// The other client authenticates correctly but presents a code minted
	// for someone else; the digest never resolves.
	_, err := fixture.service.Exchange(context.Background(), usecase.TokenExchangeInput{
		ClientID:     "app-456",
		ClientSecret: otherSecret,
		Code:         code,
		RedirectURI:  testRedirectURI,
	})
	assert.True(t, errors.Is(err, usecase.ErrOAuthInvalidRequest))

	// And the rightful client can still redeem it.
	_, err = fixture.service.Exchange(context.Background(), usecase.TokenExchangeInput{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Code:         code,
		RedirectURI:  testRedirectURI,
	})
	assert.NoError(t, err)
}

func TestAuthorizationService_ImplicitGrant(t *testing.T) {
	fixture := newAuthorizationFixture(t)
	userID := uuid.New()

	out, err := fixture.service.Authorize(context.Background(), usecase.AuthorizeInput{
		UserID:       userID,
		ClientID:     testClientID,
		RedirectURI:  testRedirectURI,
		ResponseType: usecase.ResponseTypeImplicit,
		Scope:        "openid",
		State:        "abc",
	})
	require.NoError(t, err)

	redirect, err := url.Parse(out.RedirectURL)
	require.NoError(t, err)

	// Implicit tokens travel in the fragment, never the query.
	assert.Empty(t, redirect.RawQuery)
	fragment, err := url.ParseQuery(redirect.Fragment)
	require.NoError(t, err)
	assert.NotEmpty(t, fragment.Get("id_token"))
	assert.NotEmpty(t, fragment.Get("access_token"))
	assert.Equal(t, "Bearer", fragment.Get("token_type"))
	assert.Equal(t, "abc", fragment.Get("state"))
}

func TestAuthorizationService_ImplicitGrantRequiresOpenID(t *testing.T) {
	fixture := newAuthorizationFixture(t)

	_, err := fixture.service.Authorize(context.Background(), usecase.AuthorizeInput{
		UserID:       uuid.New(),
		ClientID:     testClientID,
		RedirectURI:  testRedirectURI,
		ResponseType: usecase.ResponseTypeImplicit,
		Scope:        "profile",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}

func TestAuthorizationService_Discovery(t *testing.T) {
	fixture := newAuthorizationFixture(t)

	doc := fixture.service.Discovery()
	assert.Equal(t, "https://auth.example.com", doc.Issuer)
	assert.Equal(t, "https://auth.example.com/auth/oauth/authorize", doc.AuthorizationEndpoint)
	assert.Equal(t, "https://auth.example.com/auth/oauth/token", doc.TokenEndpoint)
	assert.Equal(t, "https://auth.example.com/auth/oauth/jwks", doc.JWKSURI)
	assert.Contains(t, doc.IDTokenSigningAlgValuesSupported, "EdDSA")
}

func TestAuthorizationService_JWKSCarriesOneSigningKey(t *testing.T) {
	fixture := newAuthorizationFixture(t)

	jwks := fixture.service.JWKS()
	require.Len(t, jwks.Keys, 1)
	assert.Equal(t, "sig", jwks.Keys[0].Use)
	assert.NotEmpty(t, jwks.Keys[0].KeyID)
}
