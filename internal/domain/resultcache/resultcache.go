// Package resultcache stores ranked result sets keyed by request fingerprint,
// bounded by entry count and expiring by age.
package resultcache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/okian/careerrank/internal/domain/types"
)

// Default cache configuration constants.
const (
	defaultMaxEntries = 1000
	defaultTTL        = 5 * time.Minute
)

type entry struct {
	results    []types.RerankResult
	insertedAt time.Time
}

// Cache is a size-bounded, time-expiring LRU of result sets.
//
// Cache is not safe for concurrent use. It is owned by a single worker that
// serializes every read and write.
type Cache struct {
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	lru       *simplelru.LRU[string, entry]
	evictions uint64
}

// New creates a cache with configuration options.
func New(opts ...Option) *Cache {
	c := &Cache{
		maxEntries: defaultMaxEntries,
		ttl:        defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxEntries > 0 {
		// NewLRU only fails for a non-positive size.
		c.lru, _ = simplelru.NewLRU[string, entry](c.maxEntries, nil)
	}
	return c
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool { return c.lru != nil }

// Get returns the result set for key. A hit moves the entry to the most
// recently used position without touching its timestamp. An expired entry
// is dropped and reported as ErrMiss.
func (c *Cache) Get(key string) ([]types.RerankResult, error) {
	if c.lru == nil {
		return nil, ErrUnavailable
	}
	e, ok := c.lru.Peek(key)
	if !ok {
		return nil, ErrMiss
	}
	if c.expired(e) {
		c.lru.Remove(key)
		c.evictions++
		return nil, ErrMiss
	}
	c.lru.Get(key)
	return e.results, nil
}

// Put stores results under key. Before inserting it drops every expired
// entry and then evicts least recently used entries while the cache is full.
// It returns the number of entries removed.
func (c *Cache) Put(key string, results []types.RerankResult) (int, error) {
	if c.lru == nil {
		return 0, ErrUnavailable
	}
	removed := c.purgeExpired()
	for c.lru.Len() >= c.maxEntries {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
		removed++
	}
	c.lru.Add(key, entry{results: results, insertedAt: c.now()})
	c.evictions += uint64(removed)
	return removed, nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

// Evictions returns the number of entries removed by expiry or size.
func (c *Cache) Evictions() uint64 { return c.evictions }

// Keys returns the keys from least to most recently used.
func (c *Cache) Keys() []string {
	if c.lru == nil {
		return nil
	}
	return c.lru.Keys()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	if c.lru != nil {
		c.lru.Purge()
	}
}

func (c *Cache) purgeExpired() int {
	if c.ttl <= 0 {
		return 0
	}
	removed := 0
	for _, k := range c.lru.Keys() {
		if e, ok := c.lru.Peek(k); ok && c.expired(e) {
			c.lru.Remove(k)
			removed++
		}
	}
	return removed
}

func (c *Cache) expired(e entry) bool {
	return c.ttl > 0 && c.now().Sub(e.insertedAt) > c.ttl
}
