package store

import (
	"context"
	"errors"
)

// Store persists opaque blobs by key.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save writes data under key, replacing any previous value.
	Save(ctx context.Context, key string, data []byte) error

	// Load returns the data stored under key.
	// Returns (nil, nil) if the key doesn't exist.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// ErrStoreClosed is returned when operations are attempted on a closed store.
var ErrStoreClosed = errors.New("store is closed")
