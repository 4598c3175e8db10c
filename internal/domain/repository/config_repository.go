package repository

import (
	"context"
	"encoding/json"
	"errors"

	"gatehouse/internal/domain/entity"
)

// Domain-specific errors for configuration persistence.
var (
	// ErrConfigNotFound is returned when a configuration namespace does not exist.
	ErrConfigNotFound = errors.New("config namespace not found")
	// ErrConfigVersionConflict is returned when an update races another writer.
	ErrConfigVersionConflict = errors.New("config version conflict")
)

// ConfigRepository defines the operations over the namespaced, versioned
// configuration documents backing the settings service.
type ConfigRepository interface {
	// Get retrieves the document for a namespace.
	Get(ctx context.Context, namespace string) (*entity.ConfigEntry, error)

	// CreateIfAbsent registers a namespace with its default value.
	// Existing namespaces are left untouched.
	CreateIfAbsent(ctx context.Context, namespace string, value json.RawMessage) error

	// Update replaces the document iff the stored version still matches
	// expectedVersion, incrementing the version. Fails with
	// ErrConfigVersionConflict otherwise.
	Update(ctx context.Context, namespace string, value json.RawMessage, expectedVersion uint64) error
}
