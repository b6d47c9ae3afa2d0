package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers the outcome of client-keyed operations so a
// retried request returns the first result instead of repeating side effects.
type IdempotencyStore interface {
	// Claim reserves a key for the caller.
	// Returns true if the key was newly claimed, false if it already exists
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Resolve stores the result of the operation for a claimed key
	Resolve(ctx context.Context, key, result string, ttl time.Duration) error

	// Lookup returns the stored result.
	// found is true for claimed keys; result is empty while the operation is in flight
	Lookup(ctx context.Context, key string) (result string, found bool, err error)

	// Release drops a claim whose operation failed without side effects
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a key and its result are remembered
	// Default: 24 hours
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	// Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
