// Package queue is the bounded mailbox in front of the rerank worker.
//
// Enqueue never blocks: a full mailbox is reported to the caller, who turns
// it into backpressure.
package queue

import (
	"context"
	"sync"

	"github.com/okian/careerrank/internal/domain/rerank"
	"github.com/okian/careerrank/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Reply is the worker's answer to a Job.
type Reply struct {
	Response rerank.Response
	Err      error
}

// Job is one rerank request travelling to the worker. Reply must be buffered
// with room for one value so the worker never blocks on an abandoned caller.
type Job struct {
	Ctx           context.Context //nolint:containedctx // the request deadline travels with the job
	CorrelationID string
	Request       rerank.Request
	Reply         chan Reply
}

// NewJob creates a Job with a buffered reply channel.
func NewJob(ctx context.Context, correlationID string, req rerank.Request) Job {
	return Job{Ctx: ctx, CorrelationID: correlationID, Request: req, Reply: make(chan Reply, 1)}
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. It returns ErrFull or ErrClosed without blocking.
	Enqueue(j Job) error

	// Dequeue returns the channel jobs are delivered on. It is closed by Close.
	Dequeue() <-chan Job

	// Len returns the number of pending jobs.
	Len() int

	// Close stops accepting jobs.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(j Job) error { //nolint:gocritic // hugeParam: Job is passed by value over the channel
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.jobs))
		return nil
	default:
		metrics.RecordQueueRejected()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue() <-chan Job { return q.jobs }

// Len implements Queue.
func (q *InMemoryQueue) Len() int {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	return size
}

// Capacity returns the configured capacity.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close implements Queue. Pending jobs stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
