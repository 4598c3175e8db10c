package impl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatehouse/config"
	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/errors"
	"gatehouse/internal/usecase"
)

func newSettingsFixture(t *testing.T) (usecase.SettingsUsecase, *fakeConfigRepo) {
	t.Helper()

	cfg := newTestConfig()
	cfg.Auth = &config.AuthConfig{
		EnablePasswordLogin:    true,
		EnablePasswordRegister: false,
		ValidateEmail:          true,
	}
	configRepo := newFakeConfigRepo()

	return NewSettingsService(cfg, configRepo, newDiscardLogger()), configRepo
}

func TestSettingsService_AuthFallsBackToStaticDefaults(t *testing.T) {
	service, _ := newSettingsFixture(t)

	// Nothing registered yet: the boot defaults apply.
	settings, err := service.Auth(context.Background())
	require.NoError(t, err)
	assert.True(t, settings.EnableLoginPassword)
	assert.False(t, settings.EnableRegisterPassword)
	assert.True(t, settings.ValidateEmail)
}

func TestSettingsService_RegisterDefaultsIsIdempotent(t *testing.T) {
	service, _ := newSettingsFixture(t)
	ctx := context.Background()

	require.NoError(t, service.RegisterDefaults(ctx))

	// An operator edit survives a restart's RegisterDefaults.
	settings, err := service.Auth(ctx)
	require.NoError(t, err)
	settings.EnableRegisterPassword = true
	require.NoError(t, service.UpdateAuth(ctx, settings))

	require.NoError(t, service.RegisterDefaults(ctx))

	settings, err = service.Auth(ctx)
	require.NoError(t, err)
	assert.True(t, settings.EnableRegisterPassword)
}

func TestSettingsService_UpdateAuthRoundTrip(t *testing.T) {
	service, _ := newSettingsFixture(t)
	ctx := context.Background()

	require.NoError(t, service.RegisterDefaults(ctx))

	updated := &entity.AuthSettings{
		EnableLoginPassword: true,
		EnableOAuth:         true,
		AllowedEmailDomains: []string{"corp.example.com"},
	}
	require.NoError(t, service.UpdateAuth(ctx, updated))

	settings, err := service.Auth(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated, settings)
}

// racingConfigRepo bumps the version after every read, so the caller's write
// always loses the race.
type racingConfigRepo struct {
	*fakeConfigRepo
}

func (r *racingConfigRepo) Get(ctx context.Context, namespace string) (*entity.ConfigEntry, error) {
	entry, err := r.fakeConfigRepo.Get(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if err := r.fakeConfigRepo.Update(ctx, namespace, entry.Value, entry.Version); err != nil {
		return nil, err
	}

	return entry, nil
}

func TestSettingsService_UpdateAuthDetectsConcurrentEdit(t *testing.T) {
	cfg := newTestConfig()
	repo := &racingConfigRepo{fakeConfigRepo: newFakeConfigRepo()}
	service := NewSettingsService(cfg, repo, newDiscardLogger())
	ctx := context.Background()

	require.NoError(t, service.RegisterDefaults(ctx))

	err := service.UpdateAuth(ctx, &entity.AuthSettings{EnableLoginPassword: true})
	assert.True(t, errors.Is(err, domainerrors.ErrConflict))
}
