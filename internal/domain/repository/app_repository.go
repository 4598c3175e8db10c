package repository

import (
	"context"
	"errors"

	"gatehouse/internal/domain/entity"
)

// Domain-specific errors for client application persistence.
var (
	// ErrAppNotFound is returned when a client application is not found or disabled.
	ErrAppNotFound = errors.New("client application not found")
)

// AppRepository defines the standard operations for registered third-party
// client applications.
type AppRepository interface {
	// Create persists a new client application.
	Create(ctx context.Context, app *entity.App) error

	// FindEnabledByClientID retrieves an enabled application by its public
	// client identifier. Disabled applications are treated as absent.
	FindEnabledByClientID(ctx context.Context, clientID string) (*entity.App, error)
}
