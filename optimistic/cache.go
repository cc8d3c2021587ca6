package optimistic

import (
	"context"
	"time"
)

// Source records the provenance of a cached value.
type Source string

const (
	// SourceOptimistic marks a speculative value written between a Create
	// and its matching Confirm or Rollback.
	SourceOptimistic Source = "optimistic"
	// SourceServer marks a value confirmed by (or restored from) the server.
	SourceServer Source = "server"
)

// CachedItem is the record stored under a cache key. The Compressed flag is
// the only discriminator the read path uses to decide whether to decompress;
// readers never guess based on content.
type CachedItem struct {
	// Data is the stored payload. When Compressed is true it is the gzip
	// stream of the JSON payload rather than the JSON itself.
	Data []byte `json:"data"`
	// Timestamp is the write time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
	// Compressed reports whether Data must be decompressed before use.
	Compressed bool `json:"compressed"`
	// Source is the provenance of the current value.
	Source Source `json:"source"`
}

// Clone returns a deep copy; snapshots must not alias live cache entries.
func (it *CachedItem) Clone() *CachedItem {
	if it == nil {
		return nil
	}
	cp := *it
	cp.Data = append([]byte(nil), it.Data...)
	return &cp
}

// Cache is the persistent key-value collaborator the tracker projects onto.
// Concrete backends (browser storage, keychains, remote caches) live outside
// this module; MemoryCache is the bundled in-process implementation.
//
// Key uniqueness is case-sensitive. Patterns accepted by Invalidate and Keys
// are globs where '*' matches any run of characters and '?' matches a single
// character.
type Cache interface {
	// Get returns the item stored under key, or ErrCacheMiss when absent.
	// Implementations may return their stored pointer; this package treats
	// returned items as read-only and copies before any mutation.
	Get(ctx context.Context, key string) (*CachedItem, error)

	// SetItem stores a complete item under key, replacing any prior value.
	SetItem(ctx context.Context, key string, item CachedItem) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Invalidate removes every key matching the glob pattern.
	Invalidate(ctx context.Context, pattern string) error

	// Keys returns the keys matching the glob pattern; "" or "*" match all.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Clear removes everything.
	Clear(ctx context.Context) error
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
