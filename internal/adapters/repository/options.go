package repository

import (
	"github.com/okian/careerrank/internal/domain/model"
	"github.com/okian/careerrank/pkg/logger"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithSeed preloads candidates.
func WithSeed(cs []model.Candidate) Option {
	return func(s *MemoryStore) {
		for _, c := range cs {
			if c.ID != "" {
				s.candidates[c.ID] = c.Clone()
			}
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *MemoryStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// RedisOption applies a configuration option to the RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the prefix for every Redis key.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRedisLogger sets a custom logger for the Redis store.
func WithRedisLogger(l logger.Logger) RedisOption {
	return func(s *RedisStore) {
		if l != nil {
			s.logger = l
		}
	}
}
