// Package worker runs the single goroutine that owns the rerank orchestrator.
//
// Jobs are processed strictly one at a time, so the orchestrator's cache
// and counters never see concurrent access.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/careerrank/internal/adapters/mq/queue"
	"github.com/okian/careerrank/internal/domain/rerank"
	"github.com/okian/careerrank/pkg/logger"
	"github.com/okian/careerrank/pkg/metrics"
)

// Reranker processes a single request.
type Reranker interface {
	Rerank(ctx context.Context, correlationID string, req rerank.Request) (rerank.Response, error)
}

// Queue defines how the worker receives jobs.
type Queue interface {
	Dequeue() <-chan queue.Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the loop to exit.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	reranker Reranker
	name     string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, r Reranker, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		reranker: r,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop. Jobs still queued when the loop exits are
// answered with rerank.ErrUnavailable.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)
	defer w.drain()

	jobs := w.queue.Dequeue()
	for {
		select {
		case <-w.shutdown:
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(job)
		}
	}
}

// Shutdown stops the worker. It is safe to call more than once.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(job queue.Job) { //nolint:gocritic // hugeParam: Job arrives by value
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	ctx := job.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := w.call(ctx, job)
	job.Reply <- queue.Reply{Response: resp, Err: err}
}

// call runs the reranker, turning a panic into an internal failure.
func (w *InMemoryWorker) call(ctx context.Context, job queue.Job) (resp rerank.Response, err error) { //nolint:gocritic // hugeParam: Job arrives by value
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordWorkerPanic()
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "rerank panicked",
				logger.String("correlation_id", job.CorrelationID),
				logger.Any("panic", r),
			)
			resp = rerank.Response{}
			err = &rerank.Failure{
				CorrelationID: job.CorrelationID,
				Err:           fmt.Errorf("%w: panic: %v", rerank.ErrInternal, r),
			}
		}
	}()
	return w.reranker.Rerank(ctx, job.CorrelationID, job.Request)
}

func (w *InMemoryWorker) drain() {
	for {
		select {
		case job, ok := <-w.queue.Dequeue():
			if !ok {
				return
			}
			job.Reply <- queue.Reply{Err: &rerank.Failure{
				CorrelationID: job.CorrelationID,
				Err:           rerank.ErrUnavailable,
			}}
		default:
			return
		}
	}
}
