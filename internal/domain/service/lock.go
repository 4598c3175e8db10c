package service

import (
	"context"
	"errors"
)

// ErrLeaseHeld is returned when the lease is already held by another caller.
var ErrLeaseHeld = errors.New("lease already exists")

// LockService provides distributed mutual exclusion leases. The lease spans
// processes: two instances of the service acquiring the same key contend on
// the shared backing store.
type LockService interface {
	// WithLease runs fn while holding an exclusive lease on key.
	// Returns ErrLeaseHeld without running fn if the lease is taken.
	WithLease(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
