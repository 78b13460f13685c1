package resultcache

import "errors"

// Sentinel errors returned by the cache.
var (
	// ErrMiss means the key is absent or its entry has expired.
	ErrMiss = errors.New("result cache miss")
	// ErrUnavailable means the cache is disabled. Callers treat it as a miss.
	ErrUnavailable = errors.New("result cache unavailable")
)
