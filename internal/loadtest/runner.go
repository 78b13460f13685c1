package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/careerrank/internal/domain/model"
	"github.com/okian/careerrank/internal/domain/rerank"
	"github.com/okian/careerrank/pkg/logger"
)

// ErrUnhealthy is returned when the server fails its health check.
var ErrUnhealthy = errors.New("service unhealthy")

// RequestBody returns the rerank request sent on every iteration. Sending the
// same body repeatedly exercises the result cache.
func RequestBody(candidates, topN int) rerank.Request {
	ids := make([]string, candidates)
	for i := range ids {
		ids[i] = CandidateID(i)
	}
	gamma := 0.1
	return rerank.Request{
		UserEvents: []model.TimelineEvent{
			{Role: "research assistant", Organization: "ML Lab", PeriodLabel: "freshman"},
			{Role: "backend intern", Organization: "Startup X", PeriodLabel: "sophomore"},
			{Role: "SWE intern", Organization: "Google", PeriodLabel: "junior"},
		},
		CandidateIDs: ids,
		Gamma:        &gamma,
		Goal:         model.Goal{TargetOrganization: "Google", TargetPeriod: "junior"},
		Profile:      model.Profile{Institution: "UIUC", Field: "CS"},
		TopN:         topN,
	}
}

// Run executes a load run and returns its report.
func Run(ctx context.Context, cfg RunConfig) (Report, error) {
	log := logger.Get().Named("loadtest")
	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("concurrency", cfg.Concurrency),
		logger.Int("candidates", cfg.Candidates),
	)

	client := newHTTPClient(cfg.Timeout)
	if err := checkServiceHealth(ctx, client, cfg.BaseURL); err != nil {
		return Report{}, err
	}

	body, err := json.Marshal(RequestBody(cfg.Candidates, cfg.TopN))
	if err != nil {
		return Report{}, fmt.Errorf("encode request: %w", err)
	}
	url := cfg.BaseURL + "/rerank"

	var (
		mu        sync.Mutex
		latencies = make([]time.Duration, 0, cfg.Requests)
		ok        int
		cached    int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Concurrency, 1))

	start := time.Now()
	for i := 0; i < cfg.Requests; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			t0 := time.Now()
			success, wasCached := one(gctx, client, url, body)
			elapsed := time.Since(t0)

			mu.Lock()
			defer mu.Unlock()
			latencies = append(latencies, elapsed)
			if success {
				ok++
			}
			if wasCached {
				cached++
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Report{}, fmt.Errorf("load run interrupted: %w", err)
	}

	report := summarize(latencies, ok, cached, cfg.Concurrency, time.Since(start))
	log.Info(ctx, "load run finished",
		logger.Int("total", report.Total),
		logger.Int("ok", report.OK),
		logger.Float64("qps", report.QPS),
		logger.Float64("p50_ms", report.P50Ms),
		logger.Float64("p95_ms", report.P95Ms),
		logger.Int("cached", report.Cached),
		logger.Float64("cacheRate", report.CacheRate),
	)
	return report, nil
}

// one sends a single request. Failures are counted, not returned, so one
// bad response never stops the run.
func one(ctx context.Context, client *HTTPClient, url string, body []byte) (ok, cached bool) {
	resp, err := client.Post(ctx, url, body)
	if err != nil {
		logger.Get().Debug(ctx, "request failed", logger.Error(err))
		return false, false
	}
	data, err := readResponseBody(resp)
	if err != nil || resp.StatusCode != http.StatusOK {
		return false, false
	}
	reply, err := decodeReply(data)
	if err != nil {
		return false, false
	}
	return true, reply.Cached
}

func checkServiceHealth(ctx context.Context, client *HTTPClient, baseURL string) error {
	resp, err := client.Get(ctx, baseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

func summarize(latencies []time.Duration, ok, cached, concurrency int, elapsed time.Duration) Report {
	r := Report{
		Total:       len(latencies),
		Concurrency: concurrency,
		OK:          ok,
		Cached:      cached,
	}
	if r.Total == 0 {
		return r
	}
	slices.Sort(latencies)
	r.P50Ms = toMs(percentile(latencies, 50))
	r.P95Ms = toMs(percentile(latencies, 95))
	r.CacheRate = float64(cached) / float64(r.Total) * 100
	if elapsed > 0 {
		r.QPS = float64(r.Total) / elapsed.Seconds()
	}
	return r
}

// percentile picks the nearest-rank value from sorted.
func percentile(sorted []time.Duration, p float64) time.Duration {
	i := int(math.Floor(p / 100 * float64(len(sorted))))
	return sorted[min(len(sorted)-1, i)]
}

func toMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
