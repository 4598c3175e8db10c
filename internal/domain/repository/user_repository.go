package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"gatehouse/internal/domain/entity"
)

// Domain-specific errors for user persistence.
var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserConflict is returned when a user violates a uniqueness constraint.
	ErrUserConflict = errors.New("user already exists")
)

// UserRepository defines the standard operations for user persistence.
// The application layer will depend on this interface, not the concrete implementation.
type UserRepository interface {
	// Create persists a new user entity to the storage.
	Create(ctx context.Context, user *entity.User) error

	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// UpdateEmail replaces the user's primary contact email.
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
}
