package reconcile

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoadFunc builds a fresh value for a cache key.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Cache holds values keyed by string with a TTL and stampede protection.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]*Entry[T]
	sf      singleflight.Group
	ttl     time.Duration
	// generation is bumped by every invalidation. A load that started
	// before an invalidation does not store its result.
	generation uint64
}

// NewCache creates a cache whose entries live for ttl. A zero ttl disables caching.
func NewCache[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]*Entry[T]),
		ttl:     ttl,
	}
}

// Get returns the cached value for key, or builds it with load if it doesn't
// exist or has expired. Uses singleflight to prevent cache stampedes.
func (c *Cache[T]) Get(ctx context.Context, key string, load LoadFunc[T]) (T, error) {
	// Fast path: check if entry exists and is fresh
	if entry, ok := c.lookup(key); ok {
		return entry.Value, nil
	}

	// Slow path: build using singleflight
	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Double-check after acquiring singleflight lock
		if entry, ok := c.lookup(key); ok {
			return entry.Value, nil
		}

		c.mu.RLock()
		gen := c.generation
		c.mu.RUnlock()

		value, err := load(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generation == gen {
			c.entries[key] = &Entry[T]{Value: value, Built: time.Now(), TTL: c.ttl}
		}
		c.mu.Unlock()

		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return result.(T), nil
}

// Invalidate removes the entry for key. Loads already in flight are
// detached so later callers trigger a fresh load.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.generation++
	c.mu.Unlock()
	c.sf.Forget(key)
}

// InvalidateAll drops every entry.
func (c *Cache[T]) InvalidateAll() {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.entries = make(map[string]*Entry[T])
	c.generation++
	c.mu.Unlock()
	for _, k := range keys {
		c.sf.Forget(k)
	}
}

func (c *Cache[T]) lookup(key string) (*Entry[T], bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if exists && !entry.IsExpired() {
		return entry, true
	}
	return nil, false
}
