package arus

import (
	"context"
	"errors"
	"time"
)

// Storage defines the interface for storage implementations.
// Sessions, rate limiters and caches persist through it.
type Storage interface {
	// Get retrieves a value for the given key.
	// Returns ErrNotFound if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value for the given key.
	// If ttl is positive, the key will expire after the specified duration.
	// If ttl is zero or negative, the key will not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key from the storage.
	// It's not an error to delete a non-existent key.
	Delete(ctx context.Context, key string) error

	// Clear removes all keys from the storage.
	Clear(ctx context.Context) error

	// Has checks if a key exists in the storage.
	Has(ctx context.Context, key string) (bool, error)
}

// ErrNotFound is returned when a key is not found in the storage.
var ErrNotFound = errors.New("arus: key not found")
