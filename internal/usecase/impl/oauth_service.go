package impl

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gatehouse/config"
	"gatehouse/internal/domain/entity"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
	"gatehouse/internal/usecase"
)

// oauthService implements the OAuthUsecase interface: the thin flow layer
// over the external OAuth identity provider, turning its auth tokens into
// sessions or register continuation tokens.
type oauthService struct {
	provider    usecase.OAuthIdentityProvider
	sessions    usecase.SessionManager
	tokenStore  service.TokenStore
	registerTTL time.Duration
	logger      *slog.Logger
}

// NewOAuthService is the constructor for oauthService.
func NewOAuthService(
	cfg *config.Config,
	provider usecase.OAuthIdentityProvider,
	sessions usecase.SessionManager,
	tokenStore service.TokenStore,
	logger *slog.Logger,
) usecase.OAuthUsecase {
	registerTTL := defaultRegisterTTL
	if cfg.Token != nil && cfg.Token.RegisterTTL > 0 {
		registerTTL = cfg.Token.RegisterTTL
	}

	return &oauthService{
		provider:    provider,
		sessions:    sessions,
		tokenStore:  tokenStore,
		registerTTL: registerTTL,
		logger:      logger,
	}
}

// Init resolves a named upstream provider and returns its authorize URL.
func (srv *oauthService) Init(ctx context.Context, name string) (string, error) {
	return srv.provider.GenerateAuthorizeURL(ctx, name)
}

// Finish consumes the state, exchanges the code upstream and either mints a
// session or returns a register continuation token.
func (srv *oauthService) Finish(ctx context.Context, input usecase.OAuthFinishInput) (*usecase.AuthResult, error) {
	token, err := srv.provider.Authenticate(ctx, input.IP, input.State, input.Code, input.RedirectURI)
	if err != nil {
		return nil, err
	}

	switch t := token.(type) {
	case entity.SessionToken:
		tokens, err := srv.sessions.CreateSession(ctx, usecase.CreateSessionInput{
			UserID: t.UserID,
			IP:     input.IP,
		})
		if err != nil {
			return nil, err
		}

		return &usecase.AuthResult{Kind: usecase.AuthResultSession, Session: tokens}, nil
	case entity.RegisterToken:
		opaque, err := srv.tokenStore.Create(ctx, service.TokenTypeRegister, t, srv.registerTTL)
		if err != nil {
			return nil, errors.Wrap(err, "mint register token")
		}

		return &usecase.AuthResult{Kind: usecase.AuthResultRegister, Token: opaque}, nil
	default:
		return nil, errors.Errorf("unexpected auth token %T from oauth authenticate", token)
	}
}

// AssociateOAuth links the external account behind the callback to the
// authenticated user.
func (srv *oauthService) AssociateOAuth(ctx context.Context, userID uuid.UUID, input usecase.OAuthFinishInput) error {
	return srv.provider.Associate(ctx, userID, input.State, input.Code, input.RedirectURI)
}
