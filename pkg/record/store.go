package record

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an update targets a record key that
// does not exist.
var ErrNotFound = errors.New("record: not found")

// Store is the create/update contract of the persistence layer.
// Implementations must be safe for concurrent use. Query execution
// beyond these two operations is out of scope for this package.
type Store interface {
	// Create inserts a new record with the given fields and returns
	// its generated key.
	Create(ctx context.Context, fields map[string]any) (key any, err error)

	// Update overwrites the given fields on the record addressed by
	// key, leaving other fields untouched.
	Update(ctx context.Context, key any, fields map[string]any) error
}
