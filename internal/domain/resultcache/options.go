package resultcache

import "time"

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithMaxEntries sets the maximum number of cached result sets.
// A value <= 0 disables the cache.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		c.maxEntries = n
	}
}

// WithTTL sets how long an entry stays valid after it was written.
// A value <= 0 keeps entries until they are evicted by size.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithClock replaces the time source. Tests use this to drive expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}
