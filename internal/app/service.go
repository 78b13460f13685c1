// Package service wires the rerank pipeline together and exposes it to the
// HTTP API.
//
// Requests are handed to a single worker through a bounded mailbox. The
// worker owns the orchestrator, so the result cache is never shared.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/okian/careerrank/internal/adapters/embedding"
	"github.com/okian/careerrank/internal/adapters/mq/queue"
	"github.com/okian/careerrank/internal/adapters/mq/worker"
	"github.com/okian/careerrank/internal/adapters/repository"
	"github.com/okian/careerrank/internal/config"
	"github.com/okian/careerrank/internal/domain/rerank"
	"github.com/okian/careerrank/internal/domain/resultcache"
	"github.com/okian/careerrank/internal/domain/scoring"
	"github.com/okian/careerrank/internal/domain/types"
	"github.com/okian/careerrank/pkg/logger"
	"github.com/okian/careerrank/pkg/metrics"
)

// Service implements the API dependencies for the rerank system.
type Service struct {
	mu sync.RWMutex

	cfg      *config.Config
	embedder embedding.Embedder
	store    repository.ReadWriter

	orchestrator *rerank.Orchestrator
	queue        *queue.InMemoryQueue
	worker       *worker.InMemoryWorker
	cancel       context.CancelFunc

	tablesVersion string
	rejected      atomic.Uint64
	started       bool

	logger logger.Logger
}

// New constructs a new Service. Collaborators that were not injected are
// built from the configuration by Start.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:    config.New(),
		logger: logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the pipeline and starts the worker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	s.logger.Info(ctx, "starting rerank service...")

	if s.embedder == nil {
		e, err := s.buildEmbedder()
		if err != nil {
			return err
		}
		s.embedder = e
	}
	if s.store == nil {
		st, err := s.buildStore(ctx)
		if err != nil {
			return err
		}
		s.store = st
	}

	scorer, err := scoring.New(
		scoring.WithWeights(s.cfg.Weights()),
		scoring.WithTables(s.cfg.Tables()),
	)
	if err != nil {
		return fmt.Errorf("build scorer: %w", err)
	}
	s.tablesVersion = scorer.TablesVersion()

	cache := resultcache.New(
		resultcache.WithMaxEntries(s.cfg.CacheMaxEntries),
		resultcache.WithTTL(s.cfg.CacheTTL()),
	)
	s.orchestrator, err = rerank.New(s.embedder, s.store, scorer,
		rerank.WithCache(cache),
		rerank.WithDefaultGamma(s.cfg.DefaultGamma),
		rerank.WithMaxCandidates(s.cfg.MaxCandidates),
		rerank.WithLoadConcurrency(s.cfg.LoadConcurrency),
	)
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.QueueSize))
	s.worker = worker.NewInMemoryWorker(s.queue, s.orchestrator, worker.WithName("rerank"))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.worker.Run(runCtx)

	s.started = true
	s.logger.Info(ctx, "rerank service started",
		logger.Int("queueSize", s.cfg.QueueSize),
		logger.Int("cacheMaxEntries", s.cfg.CacheMaxEntries),
		logger.String("tablesVersion", s.tablesVersion),
		logger.String("store", s.cfg.StoreBackend),
	)
	return nil
}

func (s *Service) buildEmbedder() (embedding.Embedder, error) {
	client, err := embedding.NewClient(embedding.Config{
		Provider:   s.cfg.EmbeddingProvider,
		Model:      s.cfg.EmbeddingModel,
		Dimension:  s.cfg.EmbeddingDimension,
		OllamaHost: s.cfg.OllamaHost,
		OpenAIKey:  s.cfg.OpenAIAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("build embedder: %w", err)
	}
	return embedding.NewMemo(client, s.cfg.EmbeddingCacheBytes, s.cfg.EmbeddingCacheTTL()), nil
}

func (s *Service) buildStore(ctx context.Context) (repository.ReadWriter, error) {
	switch s.cfg.StoreBackend {
	case config.StoreRedis:
		client, err := repository.DialRedis(ctx, repository.RedisConfig{
			Addr:     s.cfg.RedisAddr,
			Password: s.cfg.RedisPassword,
			DB:       s.cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		s.logger.Info(ctx, "using redis store", logger.String("addr", s.cfg.RedisAddr))
		return repository.NewRedisStore(client, repository.WithKeyPrefix(s.cfg.RedisKeyPrefix)), nil

	default:
		var opts []repository.Option
		if s.cfg.StoreSeedFile != "" {
			seed, err := repository.LoadSeedFile(s.cfg.StoreSeedFile)
			if err != nil {
				return nil, err
			}
			opts = append(opts, repository.WithSeed(seed))
			s.logger.Info(ctx, "loaded seed file",
				logger.String("path", s.cfg.StoreSeedFile),
				logger.Int("candidates", len(seed)),
			)
		}
		return repository.NewMemoryStore(opts...), nil
	}
}

// Stop shuts the worker down and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping rerank service...")

	_ = s.queue.Close()
	if err := s.worker.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker shutdown", logger.Error(err))
	}
	s.cancel()

	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "closing store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "rerank service stopped")
}

// Rerank assigns a correlation id, hands req to the worker and waits for
// its reply or the request deadline.
func (s *Service) Rerank(ctx context.Context, req rerank.Request) (rerank.Response, error) {
	id := uuid.NewString()

	s.mu.RLock()
	started, q := s.started, s.queue
	timeout := s.cfg.RequestTimeout()
	s.mu.RUnlock()

	if !started {
		return rerank.Response{}, &rerank.Failure{CorrelationID: id, Err: ErrNotStarted}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	job := queue.NewJob(ctx, id, req)
	if err := q.Enqueue(job); err != nil {
		if errors.Is(err, queue.ErrFull) {
			s.rejected.Add(1)
			metrics.RecordRequest("backpressure")
			s.logger.Warn(ctx, "rerank rejected", logger.String("correlation_id", id))
			return rerank.Response{}, &rerank.Failure{CorrelationID: id, Err: ErrBackpressure}
		}
		return rerank.Response{}, &rerank.Failure{CorrelationID: id, Err: fmt.Errorf("%w: %w", ErrNotStarted, err)}
	}

	select {
	case reply := <-job.Reply:
		return reply.Response, reply.Err
	case <-ctx.Done():
		return rerank.Response{}, &rerank.Failure{
			CorrelationID: id,
			Err:           fmt.Errorf("%w: %w", rerank.ErrTimeout, ctx.Err()),
		}
	}
}

// Counters returns the request counters. Before Start every value is zero.
func (s *Service) Counters() types.Counters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.orchestrator == nil {
		return types.Counters{}
	}
	return s.orchestrator.Counters()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	stats, store := s.snapshot()
	if store == nil {
		return stats
	}
	// Count may block on the network; mu is not held here.
	if n, err := store.Count(ctx); err == nil {
		stats["totalCandidates"] = n
	} else {
		s.logger.Warn(ctx, "counting candidates", logger.Error(err))
	}
	return stats
}

// snapshot collects the in-process stats and returns the store to count
// when the service is running.
func (s *Service) snapshot() (map[string]any, repository.ReadWriter) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":           s.started,
		"queueCapacity":     s.cfg.QueueSize,
		"cacheMaxEntries":   s.cfg.CacheMaxEntries,
		"storeBackend":      s.cfg.StoreBackend,
		"rejectedRequests":  s.rejected.Load(),
		"requestTimeoutMs":  s.cfg.RequestTimeoutMS,
		"defaultGamma":      s.cfg.DefaultGamma,
		"embeddingProvider": s.cfg.EmbeddingProvider,
	}
	if s.embedder != nil {
		stats["embeddingModel"] = s.embedder.Model()
	}

	if s.started {
		stats["queueLength"] = s.queue.Len()
		stats["tablesVersion"] = s.tablesVersion
		stats["counters"] = s.orchestrator.Counters()
		return stats, s.store
	}
	return stats, nil
}
