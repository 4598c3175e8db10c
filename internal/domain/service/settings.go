package service

import (
	"context"

	"gatehouse/internal/domain/entity"
)

// SettingsService reads runtime feature flags. Values are read per call,
// never cached by consumers, since operators may change them at runtime.
type SettingsService interface {
	// Auth returns the current authentication feature flags.
	Auth(ctx context.Context) (*entity.AuthSettings, error)
}
