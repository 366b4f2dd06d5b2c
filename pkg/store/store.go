// Package store provides the shared expiring key-value store the
// request coordinator keeps pending queues in. A key holds an ordered
// list of opaque entries with one TTL; abandoned keys expire on their
// own.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned when operations are attempted on a closed
// store.
var ErrClosed = errors.New("store: closed")

// Store is the expiring list-per-key contract. Implementations must
// be safe for concurrent use, and Append must be atomic per key: the
// append and the returned length happen as one read-modify-write, so
// exactly one caller ever observes length 1 for a freshly created
// key. The coordinator's admission gate depends on it.
type Store interface {
	// Append adds item to the end of the list at key (creating it if
	// absent), refreshes the TTL, and returns the new list length.
	Append(ctx context.Context, key string, item []byte, ttl time.Duration) (int, error)

	// GetList returns every item at key in order. A missing or
	// expired key returns (nil, nil).
	GetList(ctx context.Context, key string) ([][]byte, error)

	// SetList replaces the whole list at key and refreshes the TTL.
	// An empty items slice removes the key.
	SetList(ctx context.Context, key string, items [][]byte, ttl time.Duration) error

	// Delete removes a key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}
