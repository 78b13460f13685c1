// Package config defines service configuration and its defaults.
package config

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/careerrank/internal/domain/scoring"
)

// Supported store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

const weightSumTolerance = 1e-9

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFile, when set, receives a JSON copy of every log record.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`
	// MetricsRefreshSeconds is how often system gauges are refreshed.
	MetricsRefreshSeconds int `koanf:"metrics_refresh_seconds"`

	// QueueSize bounds the worker mailbox. A full mailbox is backpressure.
	QueueSize int `koanf:"queue_size"`

	// RequestTimeoutMS is the deadline for a single rerank request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	CacheMaxEntries int `koanf:"cache_max_entries"`
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	DefaultGamma    float64 `koanf:"default_gamma"`
	MaxCandidates   int     `koanf:"max_candidates"`
	LoadConcurrency int     `koanf:"load_concurrency"`

	WeightCareer       float64 `koanf:"weight_career"`
	WeightInstitution  float64 `koanf:"weight_institution"`
	WeightOrganization float64 `koanf:"weight_organization"`

	EmbeddingProvider        string `koanf:"embedding_provider"`
	EmbeddingModel           string `koanf:"embedding_model"`
	EmbeddingDimension       int    `koanf:"embedding_dimension"`
	OllamaHost               string `koanf:"ollama_host"`
	OpenAIAPIKey             string `koanf:"openai_api_key"`
	EmbeddingCacheBytes      int    `koanf:"embedding_cache_bytes"`
	EmbeddingCacheTTLSeconds int    `koanf:"embedding_cache_ttl_seconds"`

	// StoreBackend is "memory" or "redis".
	StoreBackend   string `koanf:"store_backend"`
	StoreSeedFile  string `koanf:"store_seed_file"`
	RedisAddr      string `koanf:"redis_addr"`
	RedisPassword  string `koanf:"redis_password"`
	RedisDB        int    `koanf:"redis_db"`
	RedisKeyPrefix string `koanf:"redis_key_prefix"`

	// TablesVersion labels the heuristic tables. The three table keys below
	// replace the built-in data when present.
	TablesVersion      string              `koanf:"tables_version"`
	OrgNeighbors       map[string][]string `koanf:"org_neighbors"`
	MajorEmployers     []string            `koanf:"major_employers"`
	InstitutionAliases map[string][]string `koanf:"institution_aliases"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                 "info",
		Addr:                     ":9080",
		MetricsEnabled:           true,
		MetricsRefreshSeconds:    10,
		QueueSize:                1024,
		RequestTimeoutMS:         10_000,
		CacheMaxEntries:          1000,
		CacheTTLSeconds:          300,
		DefaultGamma:             0.1,
		MaxCandidates:            500,
		LoadConcurrency:          8,
		WeightCareer:             0.4,
		WeightInstitution:        0.4,
		WeightOrganization:       0.2,
		EmbeddingProvider:        "ollama",
		EmbeddingModel:           "nomic-embed-text",
		EmbeddingDimension:       768,
		OllamaHost:               "http://localhost:11434",
		EmbeddingCacheBytes:      32 << 20,
		EmbeddingCacheTTLSeconds: 3600,
		StoreBackend:             StoreMemory,
		RedisAddr:                "localhost:6379",
		RedisKeyPrefix:           "careerrank",
		TablesVersion:            scoring.DefaultTablesVersion,
	}
}

// Validate checks the values the service cannot start without.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty: %w", ErrInvalidConfig)
	}
	if c.MetricsRefreshSeconds <= 0 {
		return fmt.Errorf("metrics_refresh_seconds must be positive: %w", ErrInvalidConfig)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive: %w", ErrInvalidConfig)
	}
	if c.RequestTimeoutMS <= 0 {
		return fmt.Errorf("request_timeout_ms must be positive: %w", ErrInvalidConfig)
	}
	if c.DefaultGamma <= 0 || math.IsNaN(c.DefaultGamma) {
		return fmt.Errorf("default_gamma must be positive: %w", ErrInvalidConfig)
	}
	if err := c.Weights().Validate(); err != nil {
		return fmt.Errorf("weights: %w: %w", ErrInvalidConfig, err)
	}
	switch c.StoreBackend {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("store_backend %q: %w", c.StoreBackend, ErrInvalidConfig)
	}
	if c.EmbeddingDimension < 0 {
		return fmt.Errorf("embedding_dimension must not be negative: %w", ErrInvalidConfig)
	}
	return nil
}

// Weights returns the blend weights.
func (c *Config) Weights() scoring.Weights {
	return scoring.Weights{
		Career:       c.WeightCareer,
		Institution:  c.WeightInstitution,
		Organization: c.WeightOrganization,
	}
}

// Tables returns the built-in tables with any configured overrides applied.
func (c *Config) Tables() scoring.Tables {
	t := scoring.DefaultTables()
	if c.TablesVersion != "" {
		t.Version = c.TablesVersion
	}
	if c.OrgNeighbors != nil {
		t.Neighbors = c.OrgNeighbors
	}
	if c.MajorEmployers != nil {
		t.MajorEmployers = c.MajorEmployers
	}
	if c.InstitutionAliases != nil {
		t.InstitutionAliases = c.InstitutionAliases
	}
	return t
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// MetricsRefreshInterval returns MetricsRefreshSeconds as a duration.
func (c *Config) MetricsRefreshInterval() time.Duration {
	return time.Duration(c.MetricsRefreshSeconds) * time.Second
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// EmbeddingCacheTTL returns EmbeddingCacheTTLSeconds as a duration.
func (c *Config) EmbeddingCacheTTL() time.Duration {
	return time.Duration(c.EmbeddingCacheTTLSeconds) * time.Second
}
