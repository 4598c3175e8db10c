package usecase

import (
	"context"

	"gatehouse/internal/domain/entity"
)

// SettingsUsecase manages the runtime feature-flag namespaces. Reads go
// straight to the store on every call so flag flips take effect without a
// restart; defaults are registered once at boot without clobbering edits.
type SettingsUsecase interface {
	// RegisterDefaults registers every namespace this service owns with
	// its default document. Idempotent.
	RegisterDefaults(ctx context.Context) error

	// Auth returns the current authentication feature flags.
	Auth(ctx context.Context) (*entity.AuthSettings, error)

	// UpdateAuth replaces the authentication flags. Fails on a concurrent
	// update.
	UpdateAuth(ctx context.Context, settings *entity.AuthSettings) error
}
