// Package rerank drives the scoring pipeline for a re-rank request: it embeds
// the user's timeline, loads candidates, aligns and blends their scores, sorts
// the results and caches them by request fingerprint.
package rerank

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/careerrank/internal/domain/alignment"
	"github.com/okian/careerrank/internal/domain/model"
	"github.com/okian/careerrank/internal/domain/resultcache"
	"github.com/okian/careerrank/internal/domain/scoring"
	"github.com/okian/careerrank/internal/domain/types"
	"github.com/okian/careerrank/pkg/logger"
	"github.com/okian/careerrank/pkg/metrics"
)

// Default orchestrator configuration constants.
const (
	defaultMaxCandidates   = 500
	defaultLoadConcurrency = 8
)

// Load error labels reported on isolated candidates.
const (
	LoadErrorNotFound    = "not_found"
	LoadErrorStorageLoad = "storage_load"
)

// Embedder turns event text into an embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) (model.Vector, error)
}

// Store reads candidate data.
type Store interface {
	LoadSequence(ctx context.Context, candidateID string) (model.Sequence, error)
	LoadOrganizations(ctx context.Context, candidateID string) ([]string, error)
	LoadInstitutions(ctx context.Context, candidateID string) ([]string, error)
}

// Orchestrator owns the result cache and the request counters.
//
// Rerank must not be called concurrently: the cache has no locking and relies
// on a single owner processing requests one at a time. Counters may be read
// from any goroutine.
type Orchestrator struct {
	embedder Embedder
	store    Store
	scorer   *scoring.Scorer
	cache    *resultcache.Cache

	defaultGamma    float64
	maxCandidates   int
	loadConcurrency int
	logger          logger.Logger
	now             func() time.Time

	totalRequests atomic.Uint64
	cacheHits     atomic.Uint64
	reranks       atomic.Uint64
	failures      atomic.Uint64
}

// New creates an orchestrator with configuration options.
func New(embedder Embedder, store Store, scorer *scoring.Scorer, opts ...Option) (*Orchestrator, error) {
	if embedder == nil || store == nil || scorer == nil {
		return nil, errors.New("rerank: embedder, store and scorer are required")
	}
	o := &Orchestrator{
		embedder:        embedder,
		store:           store,
		scorer:          scorer,
		defaultGamma:    alignment.DefaultGamma,
		maxCandidates:   defaultMaxCandidates,
		loadConcurrency: defaultLoadConcurrency,
		logger:          logger.Get().Named("orchestrator"),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.cache == nil {
		o.cache = resultcache.New()
	}
	return o, nil
}

// Counters returns a snapshot of the request counters.
func (o *Orchestrator) Counters() types.Counters {
	return types.Counters{
		TotalRequests: o.totalRequests.Load(),
		CacheHits:     o.cacheHits.Load(),
		Reranks:       o.reranks.Load(),
		Errors:        o.failures.Load(),
	}
}

// CacheLen returns the number of cached result sets. Only the owner may call it.
func (o *Orchestrator) CacheLen() int { return o.cache.Len() }

// Rerank scores req. Failures are returned as *Failure carrying
// correlationID and increment the error counter exactly once.
func (o *Orchestrator) Rerank(ctx context.Context, correlationID string, req Request) (resp Response, err error) {
	o.totalRequests.Add(1)
	start := o.now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrInternal, r)
		}
		if err != nil {
			o.failures.Add(1)
			code := Code(err)
			metrics.RecordRequest("error")
			metrics.RecordErrorByComponent("orchestrator", code)
			o.logger.Error(ctx, "rerank failed",
				logger.String("correlation_id", correlationID),
				logger.String("code", code),
				logger.Error(err),
			)
			resp = Response{}
			err = &Failure{CorrelationID: correlationID, Err: err}
		}
	}()

	resp, err = o.rerank(ctx, correlationID, req, start)
	return resp, err
}

func (o *Orchestrator) rerank(ctx context.Context, correlationID string, req Request, start time.Time) (Response, error) {
	// A job can outlive its caller while queued.
	if err := contextError(ctx); err != nil {
		return Response{}, err
	}
	n, err := req.normalize(o.defaultGamma, o.maxCandidates)
	if err != nil {
		return Response{}, err
	}
	key, err := fingerprint(n)
	if err != nil {
		return Response{}, fmt.Errorf("%w: fingerprint: %w", ErrInternal, err)
	}

	cached, err := o.cache.Get(key)
	switch {
	case err == nil:
		o.cacheHits.Add(1)
		metrics.RecordCacheHit()
		metrics.RecordRequest("cached")
		o.logger.Debug(ctx, "rerank served from cache",
			logger.String("correlation_id", correlationID),
			logger.String("fingerprint", key),
		)
		return Response{Results: topN(cached, n.topN), Cached: true, CorrelationID: correlationID}, nil
	case errors.Is(err, resultcache.ErrUnavailable):
		o.logger.Debug(ctx, "result cache unavailable, computing", logger.String("correlation_id", correlationID))
	default:
		metrics.RecordCacheMiss()
	}

	var timings types.Timings

	embedStart := o.now()
	userSeq, err := o.embedEvents(ctx, n.UserEvents)
	if err != nil {
		return Response{}, err
	}
	timings.EmbedMs = o.since(embedStart)

	loadStart := o.now()
	loaded, err := o.loadCandidates(ctx, correlationID, n)
	if err != nil {
		return Response{}, err
	}
	timings.LoadMs = o.since(loadStart)

	scoreStart := o.now()
	results := make([]types.RerankResult, len(loaded))
	for i, c := range loaded {
		if err := contextError(ctx); err != nil {
			return Response{}, err
		}
		r, err := o.score(userSeq, c, n)
		if err != nil {
			return Response{}, err
		}
		results[i] = r
	}
	slices.SortStableFunc(results, func(a, b types.RerankResult) int {
		return cmp.Compare(b.Score, a.Score)
	})
	timings.ScoreMs = o.since(scoreStart)

	if cacheable(results) {
		evicted, err := o.cache.Put(key, results)
		if err != nil && !errors.Is(err, resultcache.ErrUnavailable) {
			o.logger.Warn(ctx, "result cache write failed", logger.Error(err))
		}
		metrics.RecordCacheEvictions(evicted)
		metrics.UpdateCacheEntries(o.cache.Len())
	} else {
		o.logger.Debug(ctx, "result not cached after storage failure",
			logger.String("correlation_id", correlationID),
		)
	}

	o.reranks.Add(1)
	timings.TotalMs = o.since(start)
	metrics.RecordRequest("computed")
	metrics.RecordCandidatesScored(len(results))
	metrics.RecordStageLatency("embed", timings.EmbedMs)
	metrics.RecordStageLatency("load", timings.LoadMs)
	metrics.RecordStageLatency("score", timings.ScoreMs)
	metrics.RecordStageLatency("total", timings.TotalMs)

	o.logger.Info(ctx, "rerank computed",
		logger.String("correlation_id", correlationID),
		logger.Int("candidates", len(results)),
		logger.Float64("total_ms", timings.TotalMs),
	)
	return Response{
		Results:       topN(results, n.topN),
		CorrelationID: correlationID,
		Timings:       &timings,
	}, nil
}

// embedEvents embeds every user event. Any single failure aborts the request.
func (o *Orchestrator) embedEvents(ctx context.Context, events []model.TimelineEvent) (model.Sequence, error) {
	seq := make(model.Sequence, len(events))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.loadConcurrency)
	for i, e := range events {
		g.Go(func() error {
			v, err := o.embedder.Embed(gctx, e.Text())
			if err != nil {
				return fmt.Errorf("event %d: %w", i, err)
			}
			if len(v) == 0 {
				return fmt.Errorf("event %d: empty embedding", i)
			}
			seq[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if cerr := contextError(ctx); cerr != nil {
			return nil, cerr
		}
		metrics.RecordEmbeddingError()
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	return seq, nil
}

type loadedCandidate struct {
	id           string
	sequence     model.Sequence
	orgs         []string
	institutions []string
	loadErr      error
}

// loadCandidates fetches every candidate in parallel. A failing candidate is
// kept with loadErr set; only a done context aborts the whole load.
func (o *Orchestrator) loadCandidates(ctx context.Context, correlationID string, n normalized) ([]loadedCandidate, error) {
	out := make([]loadedCandidate, len(n.CandidateIDs))
	needInstitutions := n.Profile.Institution != ""

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.loadConcurrency)
	for i, id := range n.CandidateIDs {
		g.Go(func() error {
			c := loadedCandidate{id: id}
			c.loadErr = o.loadOne(gctx, &c, needInstitutions)
			if c.loadErr != nil {
				if err := contextError(ctx); err != nil {
					return err
				}
				reason := loadReason(c.loadErr)
				metrics.RecordCandidateLoadError(reason)
				o.logger.Warn(ctx, "candidate isolated",
					logger.String("correlation_id", correlationID),
					logger.String("candidate_id", id),
					logger.String("reason", reason),
					logger.Error(c.loadErr),
				)
			}
			out[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (o *Orchestrator) loadOne(ctx context.Context, c *loadedCandidate, needInstitutions bool) error {
	var err error
	if c.sequence, err = o.store.LoadSequence(ctx, c.id); err != nil {
		return fmt.Errorf("%w: sequence: %w", ErrStorageLoad, err)
	}
	if c.orgs, err = o.store.LoadOrganizations(ctx, c.id); err != nil {
		return fmt.Errorf("%w: organizations: %w", ErrStorageLoad, err)
	}
	if needInstitutions {
		if c.institutions, err = o.store.LoadInstitutions(ctx, c.id); err != nil {
			return fmt.Errorf("%w: institutions: %w", ErrStorageLoad, err)
		}
	}
	return nil
}

func loadReason(err error) string {
	if errors.Is(err, model.ErrCandidateNotFound) {
		return LoadErrorNotFound
	}
	return LoadErrorStorageLoad
}

// score computes one candidate's result. Dimension mismatches are returned
// as errors and fail the request.
func (o *Orchestrator) score(user model.Sequence, c loadedCandidate, n normalized) (types.RerankResult, error) {
	if c.loadErr != nil {
		return types.RerankResult{CandidateID: c.id, LoadError: loadReason(c.loadErr)}, nil
	}

	career := 0.0
	var path []types.AlignmentStep
	if len(user) > 0 && len(c.sequence) > 0 {
		res, err := alignment.SoftDTW(user, c.sequence, n.Gamma, n.IncludeAlignment)
		if err != nil {
			if errors.Is(err, alignment.ErrDimensionMismatch) {
				return types.RerankResult{}, fmt.Errorf("%w: candidate %s: %w", ErrAlignmentPrecondition, c.id, err)
			}
			return types.RerankResult{}, fmt.Errorf("%w: candidate %s: %w", ErrInternal, c.id, err)
		}
		career = alignment.Similarity(res.Distance)
		path = res.Path
		metrics.RecordAlignmentDistance(res.Distance)
	}

	institution := o.scorer.InstitutionSimilarity(n.Profile.Institution, c.institutions)
	proximity := o.scorer.OrganizationProximity(c.orgs, n.Goal.TargetOrganization)
	breakdown := o.scorer.Blend(career, institution, proximity)

	return types.RerankResult{
		CandidateID: c.id,
		Score:       breakdown.Blended,
		Breakdown:   breakdown,
		Alignment:   path,
	}, nil
}

// cacheable reports whether results may be cached. A storage failure may be
// transient, so a set holding one is recomputed next time.
func cacheable(results []types.RerankResult) bool {
	for _, r := range results {
		if r.LoadError == LoadErrorStorageLoad {
			return false
		}
	}
	return true
}

func (o *Orchestrator) since(t time.Time) float64 {
	return float64(o.now().Sub(t).Microseconds()) / 1000
}

func topN(results []types.RerankResult, n int) []types.RerankResult {
	if n > 0 && n < len(results) {
		return results[:n:n]
	}
	return results
}
