package impl

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"

	"gatehouse/config"
	deliverycontext "gatehouse/internal/delivery/context"
	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
	"gatehouse/internal/usecase"
)

const (
	authorizationCodeNamespace = "auth:code"
	authorizationCodeTTL       = 5 * time.Minute
	scopeOpenID                = "openid"
)

// authorizationService implements the AuthorizationUsecase interface: the
// first-party OAuth2/OIDC authorization server. Authorization codes are
// ephemeral cache entries addressed by an HMAC bound to the issuing client,
// so a code leaked to another client is worthless.
type authorizationService struct {
	appRepo  repository.AppRepository
	cache    service.Cache
	lock     service.LockService
	sessions usecase.SessionManager
	idTokens usecase.IDTokenIssuer
	keys     service.SigningKeyService
	issuer   string
	logger   *slog.Logger
}

// NewAuthorizationService is the constructor for authorizationService.
func NewAuthorizationService(
	cfg *config.Config,
	appRepo repository.AppRepository,
	cache service.Cache,
	lock service.LockService,
	sessions usecase.SessionManager,
	idTokens usecase.IDTokenIssuer,
	keys service.SigningKeyService,
	logger *slog.Logger,
) (usecase.AuthorizationUsecase, error) {
	if cfg.Issuer == nil || cfg.Issuer.URL == "" {
		return nil, errors.New("issuer url must be configured for the authorization server")
	}

	return &authorizationService{
		appRepo:  appRepo,
		cache:    cache,
		lock:     lock,
		sessions: sessions,
		idTokens: idTokens,
		keys:     keys,
		issuer:   strings.TrimRight(cfg.Issuer.URL, "/"),
		logger:   logger,
	}, nil
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authorizationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Authorize validates the client and redirect URI for an authenticated user
// and produces the redirect: an authorization code for the code grant, or
// the tokens themselves in the fragment for the implicit grant.
func (srv *authorizationService) Authorize(ctx context.Context, input usecase.AuthorizeInput) (*usecase.AuthorizeOutput, error) {
	app, err := srv.appRepo.FindEnabledByClientID(ctx, input.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrAppNotFound) {
			return nil, errors.Wrap(domainerrors.ErrClientNotFound, "unknown client")
		}

		return nil, errors.Wrap(err, "find client application")
	}
	if !app.AllowsRedirectURI(input.RedirectURI) {
		return nil, errors.Wrap(domainerrors.ErrRedirectURIMismatch, "redirect uri not registered")
	}

	scopes := strings.Fields(input.Scope)
	for _, scope := range scopes {
		if !scopeAllowed(app.Scopes, scope) {
			return nil, errors.Wrapf(domainerrors.ErrValidationFailed, "scope %q not permitted", scope)
		}
	}

	switch input.ResponseType {
	case usecase.ResponseTypeCode:
		return srv.authorizeCode(ctx, app, input, scopes)
	case usecase.ResponseTypeImplicit:
		return srv.authorizeImplicit(ctx, app, input, scopes)
	default:
		return nil, errors.Wrapf(domainerrors.ErrValidationFailed, "unsupported response_type %q", input.ResponseType)
	}
}

// authorizeCode mints an authorization code and binds it into the redirect
// query together with the echoed state.
func (srv *authorizationService) authorizeCode(ctx context.Context, app *entity.App, input usecase.AuthorizeInput, scopes []string) (*usecase.AuthorizeOutput, error) {
	code, err := randomCode()
	if err != nil {
		return nil, errors.Wrap(err, "generate authorization code")
	}

	payload := entity.AuthorizationCode{
		UserID:      input.UserID,
		AppID:       app.ID,
		Scopes:      scopes,
		RedirectURI: input.RedirectURI,
	}
	digest := codeDigest(app, code)
	if err := srv.cache.Put(ctx, authorizationCodeNamespace, digest, payload, authorizationCodeTTL); err != nil {
		return nil, errors.Wrap(err, "store authorization code")
	}

	redirect, err := url.Parse(input.RedirectURI)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "unparseable redirect uri")
	}
	query := redirect.Query()
	query.Set("code", code)
	if input.State != "" {
		query.Set("state", input.State)
	}
	redirect.RawQuery = query.Encode()

	srv.log(ctx).Info("Authorization code issued",
		slog.String("client_id", app.ClientID), slog.Any("user_id", input.UserID))

	return &usecase.AuthorizeOutput{RedirectURL: redirect.String()}, nil
}

// authorizeImplicit signs the ID token synchronously and returns it in the
// redirect fragment with a scoped access token. No code is issued.
func (srv *authorizationService) authorizeImplicit(ctx context.Context, app *entity.App, input usecase.AuthorizeInput, scopes []string) (*usecase.AuthorizeOutput, error) {
	if !scopeAllowed(scopes, scopeOpenID) {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "implicit flow requires the openid scope")
	}

	idToken, err := srv.idTokens.Issue(ctx, input.UserID, app.ClientID)
	if err != nil {
		return nil, err
	}

	appID := app.ID
	tokens, err := srv.sessions.CreateSession(ctx, usecase.CreateSessionInput{
		UserID: input.UserID,
		Scopes: scopes,
		AppID:  &appID,
	})
	if err != nil {
		return nil, err
	}

	fragment := url.Values{}
	fragment.Set("id_token", idToken)
	fragment.Set("access_token", tokens.AccessToken)
	fragment.Set("token_type", "Bearer")
	if input.State != "" {
		fragment.Set("state", input.State)
	}

	redirect, err := url.Parse(input.RedirectURI)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "unparseable redirect uri")
	}
	redirect.Fragment = fragment.Encode()

	srv.log(ctx).Info("Implicit tokens issued",
		slog.String("client_id", app.ClientID), slog.Any("user_id", input.UserID))

	return &usecase.AuthorizeOutput{RedirectURL: redirect.String()}, nil
}

// Exchange validates the client credentials, consumes the authorization code
// exactly once and mints a scoped session. Every client-caused failure maps
// to invalid_request or invalid_client; nothing more specific leaks.
func (srv *authorizationService) Exchange(ctx context.Context, input usecase.TokenExchangeInput) (*usecase.TokenExchangeOutput, error) {
	app, err := srv.validatedApp(ctx, input.ClientID, input.ClientSecret)
	if err != nil {
		return nil, err
	}

	digest := codeDigest(app, input.Code)
	leaseKey := authorizationCodeNamespace + ":" + digest

	var output *usecase.TokenExchangeOutput
	err = srv.lock.WithLease(ctx, leaseKey, func(ctx context.Context) error {
		var payload entity.AuthorizationCode
		if err := srv.cache.Get(ctx, authorizationCodeNamespace, digest, &payload); err != nil {
			return usecase.ErrOAuthInvalidRequest
		}
		if payload.RedirectURI != input.RedirectURI {
			return usecase.ErrOAuthInvalidRequest
		}

		existed, err := srv.cache.Del(ctx, authorizationCodeNamespace, digest)
		if err != nil {
			return errors.Wrap(err, "consume authorization code")
		}
		if !existed {
			// A concurrent exchange won the race.
			return usecase.ErrOAuthInvalidRequest
		}

		appID := payload.AppID
		tokens, err := srv.sessions.CreateSession(ctx, usecase.CreateSessionInput{
			UserID: payload.UserID,
			IP:     input.IP,
			Scopes: payload.Scopes,
			AppID:  &appID,
		})
		if err != nil {
			return errors.Wrap(err, "mint scoped session")
		}

		output = &usecase.TokenExchangeOutput{
			AccessToken: tokens.AccessToken,
			TokenType:   "Bearer",
			ExpiresIn:   tokens.ExpiresIn,
			Scope:       strings.Join(payload.Scopes, " "),
		}
		if scopeAllowed(payload.Scopes, scopeOpenID) {
			idToken, err := srv.idTokens.Issue(ctx, payload.UserID, app.ClientID)
			if err != nil {
				return errors.Wrap(err, "sign id token")
			}
			output.IDToken = idToken
		}

		srv.log(ctx).Info("Authorization code exchanged",
			slog.String("client_id", app.ClientID), slog.Any("user_id", payload.UserID))

		return nil
	})
	if errors.Is(err, service.ErrLeaseHeld) {
		return nil, usecase.ErrOAuthInvalidRequest
	}
	if err != nil {
		return nil, err
	}

	return output, nil
}

// validatedApp resolves the client and checks its secret in constant time.
func (srv *authorizationService) validatedApp(ctx context.Context, clientID, clientSecret string) (*entity.App, error) {
	app, err := srv.appRepo.FindEnabledByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrAppNotFound) {
			return nil, usecase.ErrOAuthInvalidClient
		}

		return nil, errors.Wrap(err, "find client application")
	}

	presented := hashClientSecret(clientSecret)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(app.ClientSecretHash)) != 1 {
		return nil, usecase.ErrOAuthInvalidClient
	}

	return app, nil
}

// Discovery returns the OIDC provider metadata.
func (srv *authorizationService) Discovery() *usecase.DiscoveryDocument {
	return &usecase.DiscoveryDocument{
		Issuer:                           srv.issuer,
		AuthorizationEndpoint:            srv.issuer + "/auth/oauth/authorize",
		TokenEndpoint:                    srv.issuer + "/auth/oauth/token",
		JWKSURI:                          srv.issuer + "/auth/oauth/jwks",
		ResponseTypesSupported:           []string{usecase.ResponseTypeCode, usecase.ResponseTypeImplicit},
		SubjectTypesSupported:            []string{"public"},
		IDTokenSigningAlgValuesSupported: []string{"EdDSA"},
	}
}

// JWKS returns the published public signing keys.
func (srv *authorizationService) JWKS() jose.JSONWebKeySet {
	return srv.keys.PublicJWKS()
}

// HashClientSecret maps a client secret to its stored hash representation.
// Exported so provisioning code hashes secrets the same way the exchange
// verifies them.
func HashClientSecret(secret string) string {
	return hashClientSecret(secret)
}

func hashClientSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))

	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// codeDigest addresses a stored authorization code. The key is an HMAC chain
// over the client's stored secret hash and client id, so a code can only be
// resolved by the client it was minted for.
func codeDigest(app *entity.App, code string) string {
	bindingKey := hmac.New(sha256.New, []byte(app.ClientSecretHash))
	bindingKey.Write([]byte(app.ClientID))

	mac := hmac.New(sha256.New, bindingKey.Sum(nil))
	mac.Write([]byte(code))

	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func randomCode() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func scopeAllowed(scopes []string, scope string) bool {
	for _, s := range scopes {
		if s == scope {
			return true
		}
	}

	return false
}
