package service

import (
	"github.com/okian/careerrank/internal/adapters/embedding"
	"github.com/okian/careerrank/internal/adapters/repository"
	"github.com/okian/careerrank/internal/config"
	"github.com/okian/careerrank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. Defaults come from config.New.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithEmbedder replaces the provider-backed embedder.
func WithEmbedder(e embedding.Embedder) Option {
	return func(s *Service) {
		if e != nil {
			s.embedder = e
		}
	}
}

// WithStore replaces the configured candidate store.
func WithStore(st repository.ReadWriter) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
