package rerank

import (
	"time"

	"github.com/okian/careerrank/internal/domain/resultcache"
	"github.com/okian/careerrank/pkg/logger"
)

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithCache sets the result cache. The orchestrator becomes its only user.
func WithCache(c *resultcache.Cache) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.cache = c
		}
	}
}

// WithDefaultGamma sets the smoothing used when a request omits gamma.
func WithDefaultGamma(g float64) Option {
	return func(o *Orchestrator) {
		if g > 0 {
			o.defaultGamma = g
		}
	}
}

// WithMaxCandidates bounds the number of distinct candidates per request.
// Zero or negative disables the bound.
func WithMaxCandidates(n int) Option {
	return func(o *Orchestrator) {
		o.maxCandidates = n
	}
}

// WithLoadConcurrency bounds parallel embedding calls and candidate loads.
func WithLoadConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.loadConcurrency = n
		}
	}
}

// WithLogger sets a custom logger for the orchestrator.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces the time source used for timings.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}
