package store

import (
	"context"
	"errors"
)

// ErrNotFound reports an absent key, collection or record.
// For Load it is the normal "cold start" signal, not a failure.
var ErrNotFound = errors.New("not found")

// Medium is a key/value blob store the record store persists into.
// Implementations must make Set and Update atomic from the reader's view:
// a concurrent Get sees either the previous value or the new one, never a mix.
type Medium interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value for key.
	Set(ctx context.Context, key string, value []byte) error

	// Update runs fn against the current value and stores its result.
	// Returns ErrNotFound without calling fn if the key is absent.
	// If fn returns a nil slice and no error, nothing is written.
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error

	// Delete removes keys. Absent keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Ping verifies the medium is reachable.
	Ping(ctx context.Context) error

	// Close releases resources. Implements io.Closer.
	Close() error
}

// IsNotFound returns true if the error is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
