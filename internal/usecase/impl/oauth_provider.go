package impl

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	deliverycontext "gatehouse/internal/delivery/context"
	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
	"gatehouse/internal/infra/oauth"
	"gatehouse/internal/usecase"
)

// stateTokenTTL bounds how long an outbound authorize redirect stays
// correlatable with its callback.
const stateTokenTTL = 5 * time.Minute

// oauthProvider implements the OAuthIdentityProvider interface: sign-in by
// delegating to an upstream OAuth2 identity provider. The CSRF state token
// doubles as the correlation key back to which upstream provider was used.
type oauthProvider struct {
	config       usecase.OAuthConfigProvider
	tokenStore   service.TokenStore
	exchanger    *oauth.Exchanger
	identityRepo repository.IdentityRepository
	settings     service.SettingsService
	logger       *slog.Logger
}

// NewOAuthProvider is the constructor for oauthProvider.
func NewOAuthProvider(
	config usecase.OAuthConfigProvider,
	tokenStore service.TokenStore,
	exchanger *oauth.Exchanger,
	identityRepo repository.IdentityRepository,
	settings service.SettingsService,
	logger *slog.Logger,
) usecase.OAuthIdentityProvider {
	return &oauthProvider{
		config:       config,
		tokenStore:   tokenStore,
		exchanger:    exchanger,
		identityRepo: identityRepo,
		settings:     settings,
		logger:       logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the provider's logger.
func (p *oauthProvider) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, p.logger)
}

// ID returns the provider's stable identifier.
func (p *oauthProvider) ID() string {
	return "oauth"
}

// ListMethods returns one sign-in method per enabled upstream provider, or
// nothing when OAuth login is disabled globally.
func (p *oauthProvider) ListMethods(ctx context.Context) ([]entity.AuthMethod, error) {
	settings, err := p.settings.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read auth settings")
	}
	if !settings.EnableOAuth {
		return nil, nil
	}

	providers, err := p.config.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}

	methods := make([]entity.AuthMethod, 0, len(providers))
	for _, provider := range providers {
		methods = append(methods, entity.AuthMethod{
			Provider: entity.ProviderOAuthPrefix + provider.Name,
			Name:     provider.Name,
			ImageSrc: provider.ImageSrc,
		})
	}

	return methods, nil
}

// GenerateAuthorizeURL builds the upstream authorize URL for a named
// provider. The state parameter is a fresh ephemeral token bound to the
// provider name; it is both the CSRF nonce and the correlation key.
func (p *oauthProvider) GenerateAuthorizeURL(ctx context.Context, name string) (string, error) {
	provider, err := p.config.GetProvider(ctx, name)
	if err != nil {
		return "", err
	}

	state, err := p.tokenStore.Create(ctx, service.TokenTypeState, entity.StateToken{Name: name}, stateTokenTTL)
	if err != nil {
		return "", errors.Wrap(err, "mint state token")
	}

	authorizeURL, err := url.Parse(provider.AuthorizeURL)
	if err != nil {
		return "", errors.Wrap(err, "parse authorize url")
	}
	query := authorizeURL.Query()
	query.Set("response_type", "code")
	query.Set("client_id", provider.ClientID)
	query.Set("state", state)
	authorizeURL.RawQuery = query.Encode()

	return authorizeURL.String(), nil
}

// Authenticate consumes the state token, exchanges the code upstream and
// maps the external account to a local identity.
func (p *oauthProvider) Authenticate(ctx context.Context, ip, state, code, redirectURI string) (entity.AuthToken, error) {
	name, externalID, err := p.exchange(ctx, state, code, redirectURI)
	if err != nil {
		return nil, err
	}

	provider := entity.ProviderOAuthPrefix + name
	identity, err := p.identityRepo.FindByProvider(ctx, provider, externalID)
	if err != nil {
		if !errors.Is(err, repository.ErrIdentityNotFound) {
			return nil, errors.Wrap(err, "find oauth identity")
		}

		upstream, cfgErr := p.config.GetProvider(ctx, name)
		if cfgErr != nil {
			return nil, cfgErr
		}
		if !upstream.IsRegistrationEnabled {
			return nil, errors.Wrap(domainerrors.ErrOAuthFailed, "registration not available through this provider")
		}

		p.log(ctx).Info("OAuth login for unknown identity, starting registration",
			slog.String("provider", provider), slog.String("ip", ip))

		return entity.RegisterToken{
			Identities: []entity.PendingIdentity{{Provider: provider, ProviderID: externalID}},
		}, nil
	}

	p.log(ctx).Info("OAuth login",
		slog.String("provider", provider), slog.Any("user_id", identity.UserID), slog.String("ip", ip))

	return entity.SessionToken{UserID: identity.UserID}, nil
}

// Associate performs the same exchange but links the external account to an
// already-authenticated user.
func (p *oauthProvider) Associate(ctx context.Context, userID uuid.UUID, state, code, redirectURI string) error {
	name, externalID, err := p.exchange(ctx, state, code, redirectURI)
	if err != nil {
		return err
	}

	identity := &entity.Identity{
		UserID:     userID,
		Provider:   entity.ProviderOAuthPrefix + name,
		ProviderID: externalID,
	}
	if err := p.identityRepo.Create(ctx, identity); err != nil {
		if errors.Is(err, repository.ErrIdentityConflict) {
			return errors.Wrap(domainerrors.ErrIdentityAlreadyLinked, "oauth identity already linked")
		}

		return errors.Wrap(err, "link oauth identity")
	}

	p.log(ctx).Info("Linked OAuth identity",
		slog.String("provider", identity.Provider), slog.Any("user_id", userID))

	return nil
}

// exchange resolves the state token to its provider, invalidates it (single
// use), and runs the code-for-id exchange against the upstream.
func (p *oauthProvider) exchange(ctx context.Context, state, code, redirectURI string) (name, externalID string, err error) {
	var payload entity.StateToken
	if err := p.tokenStore.Lookup(ctx, service.TokenTypeState, state, &payload); err != nil {
		return "", "", errors.Wrap(domainerrors.ErrOAuthStateInvalid, "state lookup failed")
	}
	// Invalidate before the upstream exchange: a replayed state must fail
	// even if this exchange ends up failing.
	if err := p.tokenStore.Invalidate(ctx, service.TokenTypeState, state); err != nil {
		return "", "", errors.Wrap(domainerrors.ErrOAuthStateInvalid, "state already consumed")
	}

	provider, err := p.config.GetProvider(ctx, payload.Name)
	if err != nil {
		return "", "", err
	}

	externalID, err = p.exchanger.ExternalID(ctx, provider, code, redirectURI)
	if err != nil {
		p.log(ctx).Warn("Upstream OAuth exchange failed",
			slog.String("provider", payload.Name), slog.Any("error", err))

		// Upstream details never reach the client.
		return "", "", errors.Wrap(domainerrors.ErrOAuthFailed, "upstream exchange failed")
	}

	return payload.Name, externalID, nil
}
