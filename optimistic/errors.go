package optimistic

import (
	"errors"
	"fmt"
)

// Common errors returned by this package. Use errors.Is to test for them.
//
// Example:
//
//	if err := tracker.Confirm(ctx, id, serverValue); errors.Is(err, optimistic.ErrNotPending) {
//	    // the operation was already confirmed or rolled back
//	}
var (
	// ErrInvalidConfig is returned when a configuration is unusable.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCacheMiss is returned by Cache.Get when a key is absent.
	ErrCacheMiss = errors.New("cache miss")

	// ErrOperationNotFound is returned when an operation id is unknown.
	ErrOperationNotFound = errors.New("operation not found")

	// ErrNotPending is returned when Confirm or Rollback targets an
	// operation that already reached a terminal state. Terminal states are
	// never revisited; a second Confirm is an error, not a no-op.
	ErrNotPending = errors.New("operation is not pending")

	// ErrKeyBusy is returned when a new optimistic write targets a cache
	// key that already has a pending operation. Serializing same-key
	// operations this way keeps rollback snapshots from going stale.
	ErrKeyBusy = errors.New("cache key has a pending operation")

	// ErrQueueClosed is returned by the replay queue after Close.
	ErrQueueClosed = errors.New("replay queue is closed")
)

// OperationError wraps a tracker failure with the operation id and cache key
// involved, for observability.
type OperationError struct {
	// OperationID is the id of the operation the call targeted.
	OperationID string
	// CacheKey is the key the operation projects onto, when known.
	CacheKey string
	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e.CacheKey != "" {
		return fmt.Sprintf("optimistic operation %s (key %s): %v", e.OperationID, e.CacheKey, e.Err)
	}
	return fmt.Sprintf("optimistic operation %s: %v", e.OperationID, e.Err)
}

// Unwrap returns the underlying error.
func (e *OperationError) Unwrap() error {
	return e.Err
}

func opError(id, key string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{OperationID: id, CacheKey: key, Err: err}
}

// IsCacheMiss reports whether err is (or wraps) ErrCacheMiss.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
