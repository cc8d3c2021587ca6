package optimistic

import (
	"context"
	"sync"

	"github.com/gobwas/glob"
)

// MemoryCache is the bundled in-process Cache implementation: a mutex-guarded
// map with glob pattern support. It backs tests, examples and callers that
// do not bring their own persistent store. All methods are safe for
// concurrent use.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]CachedItem
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]CachedItem)}
}

// Get returns the item stored under key, or ErrCacheMiss when absent.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CachedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return item.Clone(), nil
}

// SetItem stores a complete item under key.
func (c *MemoryCache) SetItem(ctx context.Context, key string, item CachedItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = *item.Clone()
	return nil
}

// Delete removes key; absent keys are ignored.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

// Invalidate removes every key matching the glob pattern.
func (c *MemoryCache) Invalidate(ctx context.Context, pattern string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if g.Match(key) {
			delete(c.items, key)
		}
	}
	return nil
}

// Keys returns the keys matching the glob pattern; "" or "*" match all.
func (c *MemoryCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pattern == "" {
		pattern = "*"
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.items))
	for key := range c.items {
		if g.Match(key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Clear removes everything.
func (c *MemoryCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]CachedItem)
	return nil
}

// Len returns the number of stored keys.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
