package snapcache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is the default entry lifetime.
const DefaultTTL = 15 * time.Minute

// DefaultMaxEntries bounds the cache when no capacity is configured.
const DefaultMaxEntries = 10000

// statsKeySample caps the number of keys returned by Stats.
const statsKeySample = 50

// Loader fetches a value from the backing store on a cache miss.
// Returning (nil, nil) means the key does not exist upstream.
type Loader func(ctx context.Context, key Key) (interface{}, error)

// entry is one cached value with its expiry and access bookkeeping.
type entry struct {
	value          interface{}
	size           int
	expiresAt      time.Time
	lastAccessedAt time.Time
}

// Cache is a thread-safe snapshot cache with TTL and LRU eviction.
// Entries expire lazily on read and are swept eagerly on every mutating
// operation. When the cache reaches capacity, the least recently
// accessed entry is evicted.
type Cache struct {
	// entries maps composite key strings to cached entries
	entries map[string]*entry

	// loaders maps key prefixes (e.g. "persona:") to fetch-through loaders
	loaders map[string]Loader

	// ttl is the time-to-live for cache entries
	ttl time.Duration

	// maxEntries is the maximum number of entries
	maxEntries int

	// mu protects concurrent access
	mu sync.RWMutex

	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the default entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMaxEntries overrides the default capacity.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithLoader registers a fetch-through loader for keys with the given
// prefix. On a Get miss for a matching key, the loader is invoked and a
// non-nil result is stored before being returned.
func WithLoader(prefix string, loader Loader) Option {
	return func(c *Cache) {
		c.loaders[prefix] = loader
	}
}

// New creates a snapshot cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]*entry),
		loaders:    make(map[string]Loader),
		ttl:        DefaultTTL,
		maxEntries: DefaultMaxEntries,
		logger:     slog.Default().With("component", "snapcache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a value. On a miss for a key whose local part matches a
// registered loader prefix, it fetches through to the backing store and
// populates the cache. Returns (nil, false, nil) when the key is absent
// both locally and upstream.
func (c *Cache) Get(ctx context.Context, key Key) (interface{}, bool, error) {
	k := key.String()

	c.mu.RLock()
	e, ok := c.entries[k]
	if ok && time.Now().Before(e.expiresAt) {
		value := e.value
		c.mu.RUnlock()

		c.mu.Lock()
		if e, ok := c.entries[k]; ok {
			e.lastAccessedAt = time.Now()
		}
		c.mu.Unlock()

		return value, true, nil
	}
	c.mu.RUnlock()

	// Lazily evict the expired entry.
	if ok {
		c.mu.Lock()
		if e, stale := c.entries[k]; stale && !time.Now().Before(e.expiresAt) {
			delete(c.entries, k)
		}
		c.mu.Unlock()
	}

	loader := c.loaderFor(key.Local)
	if loader == nil {
		return nil, false, nil
	}

	value, err := loader(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if value == nil {
		return nil, false, nil
	}

	c.Set(key, value)
	return value, true, nil
}

// Set stores a value with the configured TTL, sweeping expired entries
// first and evicting the least recently used entry if at capacity.
func (c *Cache) Set(key Key, value interface{}) {
	k := key.String()
	size := approximateSize(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()

	if len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[k]; !exists {
			c.evictLRULocked()
		}
	}

	now := time.Now()
	c.entries[k] = &entry{
		value:          value,
		size:           size,
		expiresAt:      now.Add(c.ttl),
		lastAccessedAt: now,
	}
}

// Delete removes an entry, sweeping expired entries at the same time.
func (c *Cache) Delete(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()
	delete(c.entries, key.String())
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
}

// Size returns the current number of entries.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Stats describes the cache contents. MemoryBytes is an approximation
// based on serialized value sizes, not a precise heap measurement.
type Stats struct {
	Entries     int      `json:"entries"`
	KeySample   []string `json:"key_sample"`
	MemoryBytes int64    `json:"memory_bytes"`
}

// Stats returns the entry count, a capped sample of keys, and the
// approximate memory held by cached values.
func (c *Cache) Stats() *Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := &Stats{Entries: len(c.entries)}
	for k, e := range c.entries {
		stats.MemoryBytes += int64(e.size)
		if len(stats.KeySample) < statsKeySample {
			stats.KeySample = append(stats.KeySample, k)
		}
	}
	return stats
}

func (c *Cache) loaderFor(local string) Loader {
	for prefix, loader := range c.loaders {
		if strings.HasPrefix(local, prefix) {
			return loader
		}
	}
	return nil
}

// sweepLocked removes all expired entries. Must be called with the
// write lock held.
func (c *Cache) sweepLocked() {
	now := time.Now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// evictLRULocked removes the least recently accessed entry. Must be
// called with the write lock held.
func (c *Cache) evictLRULocked() {
	var oldestKey string
	var oldestTime time.Time

	for k, e := range c.entries {
		if oldestKey == "" || e.lastAccessedAt.Before(oldestTime) {
			oldestKey = k
			oldestTime = e.lastAccessedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// approximateSize estimates the serialized size of a value in bytes.
func approximateSize(value interface{}) int {
	data, err := json.Marshal(value)
	if err != nil {
		return 0
	}
	return len(data)
}
