package impl

import (
	"context"
	"encoding/json"
	"log/slog"

	"gatehouse/config"
	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/errors"
	"gatehouse/internal/usecase"
)

const authSettingsNamespace = "auth"

// settingsService implements the SettingsUsecase (and the domain
// SettingsService) over the versioned configs table. The boot defaults come
// from the static configuration file; the stored document wins afterwards.
type settingsService struct {
	configRepo repository.ConfigRepository
	defaults   entity.AuthSettings
	logger     *slog.Logger
}

// NewSettingsService is the constructor for settingsService.
func NewSettingsService(
	cfg *config.Config,
	configRepo repository.ConfigRepository,
	logger *slog.Logger,
) usecase.SettingsUsecase {
	defaults := entity.AuthSettings{
		EnableLoginPassword:    true,
		EnableRegisterPassword: true,
		EnableOAuth:            true,
	}
	if cfg.Auth != nil {
		defaults.EnableLoginPassword = cfg.Auth.EnablePasswordLogin
		defaults.EnableRegisterPassword = cfg.Auth.EnablePasswordRegister
		defaults.ValidateEmail = cfg.Auth.ValidateEmail
	}

	return &settingsService{
		configRepo: configRepo,
		defaults:   defaults,
		logger:     logger,
	}
}

// RegisterDefaults registers the auth namespace with its default document.
// An existing document is left untouched.
func (srv *settingsService) RegisterDefaults(ctx context.Context) error {
	value, err := json.Marshal(srv.defaults)
	if err != nil {
		return errors.Wrap(err, "marshal default auth settings")
	}

	if err := srv.configRepo.CreateIfAbsent(ctx, authSettingsNamespace, value); err != nil {
		return errors.Wrap(err, "register auth settings namespace")
	}

	srv.logger.Info("Settings namespace registered", slog.String("namespace", authSettingsNamespace))

	return nil
}

// Auth returns the current authentication feature flags.
func (srv *settingsService) Auth(ctx context.Context) (*entity.AuthSettings, error) {
	entry, err := srv.configRepo.Get(ctx, authSettingsNamespace)
	if err != nil {
		if errors.Is(err, repository.ErrConfigNotFound) {
			// Before RegisterDefaults has run, fall back to the static defaults.
			defaults := srv.defaults

			return &defaults, nil
		}

		return nil, errors.Wrap(err, "read auth settings")
	}

	var settings entity.AuthSettings
	if err := json.Unmarshal(entry.Value, &settings); err != nil {
		return nil, errors.Wrap(err, "decode auth settings")
	}

	return &settings, nil
}

// UpdateAuth replaces the authentication flags under optimistic concurrency
// control.
func (srv *settingsService) UpdateAuth(ctx context.Context, settings *entity.AuthSettings) error {
	entry, err := srv.configRepo.Get(ctx, authSettingsNamespace)
	if err != nil {
		return errors.Wrap(err, "read auth settings for update")
	}

	value, err := json.Marshal(settings)
	if err != nil {
		return errors.Wrap(err, "marshal auth settings")
	}

	if err := srv.configRepo.Update(ctx, authSettingsNamespace, value, entry.Version); err != nil {
		if errors.Is(err, repository.ErrConfigVersionConflict) {
			return errors.Wrap(domainerrors.ErrConflict, "settings changed concurrently")
		}

		return errors.Wrap(err, "update auth settings")
	}

	return nil
}
