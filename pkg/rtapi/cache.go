package rtapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/revivatech/client-go/internal/constants"
)

// CacheEntry is a stored response. An entry is created when a cacheable
// call succeeds, checked for expiry on every lookup, and removed when it
// expires or is evicted for capacity.
type CacheEntry struct {
	Data       []byte
	StatusCode int
	Headers    http.Header
	ETag       string
	InsertedAt time.Time
	TTL        time.Duration
}

// Expired reports whether the entry has outlived its TTL.
func (e *CacheEntry) Expired() bool {
	return time.Since(e.InsertedAt) > e.TTL
}

// Cache is the storage backend for response caching. Implementations
// must be safe for concurrent use.
type Cache interface {
	// Get returns the entry for the key or an error on a miss.
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores an entry under the key.
	Set(ctx context.Context, key string, entry *CacheEntry) error

	// Delete removes a single entry.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Has reports whether an unexpired entry exists for the key.
	Has(ctx context.Context, key string) bool

	// Keys lists the currently stored keys.
	Keys(ctx context.Context) ([]string, error)
}

// MemoryCache is a bounded in-memory cache. When full it evicts the
// oldest inserted entry, not the least recently used one.
type MemoryCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*CacheEntry
	order   []string
	stopCh  chan struct{}
	stopped sync.Once
}

// NewMemoryCache creates a memory cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = constants.DefaultCacheCapacity
	}

	return &MemoryCache{
		maxSize: maxSize,
		entries: make(map[string]*CacheEntry),
		order:   make([]string, 0, maxSize),
		stopCh:  make(chan struct{}),
	}
}

// Get returns the entry for the key. An expired entry is deleted and
// reported as a miss, so callers never see a value older than its TTL.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCacheKeyNotFound, key)
	}

	if entry.Expired() {
		c.remove(key)

		return nil, fmt.Errorf("%w: %s", ErrCacheEntryExpired, key)
	}

	return entry, nil
}

// Set stores an entry. Inserting a new key into a full cache first
// evicts the oldest inserted entry. Re-setting an existing key replaces
// the value but keeps its position in the eviction order.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = entry

		return nil
	}

	if len(c.entries) >= c.maxSize && len(c.order) > 0 {
		c.remove(c.order[0])
	}

	c.entries[key] = entry
	c.order = append(c.order, key)

	return nil
}

// Delete removes a single entry.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.remove(key)

	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*CacheEntry)
	c.order = c.order[:0]

	return nil
}

// Has reports whether an unexpired entry exists for the key.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]

	return ok && !entry.Expired()
}

// Keys lists the stored keys in insertion order.
func (c *MemoryCache) Keys(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, len(c.order))
	copy(keys, c.order)

	return keys, nil
}

// Size returns the number of stored entries, expired ones included.
func (c *MemoryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Cleanup removes all expired entries.
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.Expired() {
			c.remove(key)
		}
	}
}

// StartCleanup runs Cleanup on the given interval until Close is called.
func (c *MemoryCache) StartCleanup(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.Cleanup()
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Close stops the background cleanup if one was started.
func (c *MemoryCache) Close() error {
	c.stopped.Do(func() {
		close(c.stopCh)
	})

	return nil
}

// remove deletes an entry and its eviction order slot. Callers must hold
// the mutex.
func (c *MemoryCache) remove(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}

	delete(c.entries, key)

	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)

			break
		}
	}
}

// CacheStats tracks cache effectiveness.
type CacheStats struct {
	Hits   int64
	Misses int64
	Sets   int64
}

// GetHitRate returns the fraction of lookups served from the cache.
func (s *CacheStats) GetHitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// CacheOptions holds backend independent cache behavior.
type CacheOptions struct {
	// DefaultTTL is applied to entries stored without an explicit TTL.
	DefaultTTL time.Duration
}

// DefaultCacheOptions returns the default cache options.
func DefaultCacheOptions() *CacheOptions {
	return &CacheOptions{
		DefaultTTL: constants.DefaultCacheTTL,
	}
}

// CacheManager wraps a Cache backend with request signature building,
// TTL defaulting, and hit/miss statistics. The request pipeline goes
// through the manager rather than the backend directly.
type CacheManager struct {
	cache   Cache
	options *CacheOptions

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

// NewCacheManager creates a cache manager. A nil cache gets the default
// bounded memory backend; nil options get DefaultCacheOptions.
func NewCacheManager(cache Cache, options *CacheOptions) *CacheManager {
	if cache == nil {
		cache = NewMemoryCache(constants.DefaultCacheCapacity)
	}

	if options == nil {
		options = DefaultCacheOptions()
	}

	return &CacheManager{
		cache:   cache,
		options: options,
	}
}

// GetCacheKey builds the canonical signature for a request: method and
// path, plus the query encoded in sorted key order so that equivalent
// requests share one cache slot regardless of parameter ordering.
func (m *CacheManager) GetCacheKey(method, path string, query url.Values) string {
	key := method + ":" + path

	if encoded := query.Encode(); encoded != "" {
		key += ":" + encoded
	}

	return key
}

// Get returns the cached entry for the key and records a hit or miss.
func (m *CacheManager) Get(ctx context.Context, key string) (*CacheEntry, error) {
	entry, err := m.cache.Get(ctx, key)
	if err != nil {
		m.misses.Add(1)

		return nil, err
	}

	m.hits.Add(1)

	return entry, nil
}

// Set stores an entry, stamping the insertion time and falling back to
// the default TTL when the entry does not carry one.
func (m *CacheManager) Set(ctx context.Context, key string, entry *CacheEntry) error {
	if entry.InsertedAt.IsZero() {
		entry.InsertedAt = time.Now()
	}

	if entry.TTL <= 0 {
		entry.TTL = m.options.DefaultTTL
	}

	err := m.cache.Set(ctx, key, entry)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}

	m.sets.Add(1)

	return nil
}

// Delete removes a single entry.
func (m *CacheManager) Delete(ctx context.Context, key string) error {
	return m.cache.Delete(ctx, key)
}

// Clear removes all entries.
func (m *CacheManager) Clear(ctx context.Context) error {
	return m.cache.Clear(ctx)
}

// InvalidatePath removes every cached read whose signature references
// the given path. Mutating calls use this to keep cached lists and
// detail reads from going stale.
func (m *CacheManager) InvalidatePath(ctx context.Context, path string) error {
	keys, err := m.cache.Keys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cache keys: %w", err)
	}

	for _, key := range keys {
		if cacheKeyMatchesPath(key, path) {
			_ = m.cache.Delete(ctx, key)
		}
	}

	return nil
}

// GetStats returns a copy of the current statistics.
func (m *CacheManager) GetStats() *CacheStats {
	return &CacheStats{
		Hits:   m.hits.Load(),
		Misses: m.misses.Load(),
		Sets:   m.sets.Load(),
	}
}

// cacheKeyMatchesPath reports whether a signature built by GetCacheKey
// refers to the given path or to a subresource of it.
func cacheKeyMatchesPath(key, path string) bool {
	idx := 0
	for i := range key {
		if key[i] == ':' {
			idx = i + 1

			break
		}
	}

	keyPath := key[idx:]
	for i := range keyPath {
		if keyPath[i] == ':' {
			keyPath = keyPath[:i]

			break
		}
	}

	if keyPath == path {
		return true
	}

	return len(keyPath) > len(path) && keyPath[:len(path)] == path && keyPath[len(path)] == '/'
}

// CachingPolicy decides which calls may be served from or written to
// the cache.
type CachingPolicy struct {
	// CacheGET enables caching of GET responses.
	CacheGET bool

	// ExcludePaths lists path prefixes that are never cached, for
	// example volatile endpoints like the health probe.
	ExcludePaths []string

	// IncludePaths, when non-empty, restricts caching to the listed
	// path prefixes.
	IncludePaths []string
}

// DefaultCachingPolicy caches successful GET responses for everything
// except the health probe.
func DefaultCachingPolicy() *CachingPolicy {
	return &CachingPolicy{
		CacheGET:     true,
		ExcludePaths: []string{"/api/health"},
	}
}

// ShouldCache reports whether a response for the method, path and status
// belongs in the cache. Only statuses below 300 are ever cached.
func (p *CachingPolicy) ShouldCache(method, path string, statusCode int) bool {
	if method != http.MethodGet || !p.CacheGET {
		return false
	}

	if statusCode >= 300 || statusCode < 0 {
		return false
	}

	for _, prefix := range p.ExcludePaths {
		if hasPathPrefix(path, prefix) {
			return false
		}
	}

	if len(p.IncludePaths) > 0 {
		for _, prefix := range p.IncludePaths {
			if hasPathPrefix(path, prefix) {
				return true
			}
		}

		return false
	}

	return true
}

// ShouldLookup reports whether a request may be answered from the cache
// before reaching the transport. Status is not known yet at lookup time,
// so only the method and path rules apply.
func (p *CachingPolicy) ShouldLookup(method, path string) bool {
	return p.ShouldCache(method, path, 0)
}

func hasPathPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}

	return len(path) > len(prefix) && path[:len(prefix)] == prefix && path[len(prefix)] == '/'
}
