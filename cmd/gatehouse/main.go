package main

import (
	"context"
	"log/slog"
	"os"

	"go.uber.org/fx"

	"gatehouse/config"
	"gatehouse/internal/delivery"
	"gatehouse/internal/delivery/http"
	"gatehouse/internal/delivery/http/middleware"
	"gatehouse/internal/delivery/http/router/handler"
	deliverymiddleware "gatehouse/internal/delivery/middleware"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/infra/auth"
	"gatehouse/internal/infra/cache"
	logs "gatehouse/internal/infra/log"
	"gatehouse/internal/infra/mail"
	"gatehouse/internal/infra/oauth"
	"gatehouse/internal/infra/persistence/postgres"
	"gatehouse/internal/usecase"
	"gatehouse/internal/usecase/impl"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			registerSettingsDefaults,
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		cache.New,
		cache.NewCache,
		cache.NewTokenStore,
		cache.NewLockService,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewUserRepository,
			postgres.NewIdentityRepository,
			postgres.NewSessionRepository,
			postgres.NewAppRepository,
			postgres.NewOAuthProviderRepository,
			postgres.NewConfigRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewScryptHasher,
			auth.NewJWTService,
			auth.NewSigningKeyService,
			mail.NewSMTPMailer,
			oauth.NewExchanger,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewSettingsService,
			newSettingsService,
			impl.NewPasswordProvider,
			impl.NewOAuthConfigProvider,
			impl.NewOAuthProvider,
			newIdentityRegistry,
			impl.NewSessionManager,
			impl.NewAuthService,
			impl.NewOAuthService,
			impl.NewIDTokenIssuer,
			impl.NewAuthorizationService,
		),
	)
}

// newSettingsService narrows the settings usecase to the read-only interface
// the domain services consume.
func newSettingsService(uc usecase.SettingsUsecase) service.SettingsService {
	return uc
}

// newIdentityRegistry registers every authentication strategy at boot. A
// duplicate provider id fails construction and aborts startup.
func newIdentityRegistry(
	logger *slog.Logger,
	password usecase.PasswordProvider,
	oauth usecase.OAuthIdentityProvider,
) (usecase.IdentityRegistry, error) {
	return impl.NewIdentityRegistry(logger, password, oauth)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewErrorMiddleware,
			deliverymiddleware.NewRequestIDMiddleware,
			deliverymiddleware.NewLoggerMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewSessionHandler,
			handler.NewOAuthHandler,
			handler.NewAuthorizationHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

// registerSettingsDefaults seeds the runtime feature-flag namespaces without
// clobbering operator edits.
func registerSettingsDefaults(ctx context.Context, settings usecase.SettingsUsecase) error {
	return settings.RegisterDefaults(ctx)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
