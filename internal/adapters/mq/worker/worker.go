// Package worker drains the submission queue into the submission store.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/streakd/internal/domain/model"
	"github.com/okian/streakd/pkg/logger"
	"github.com/okian/streakd/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Recorder persists an accepted submission.
type Recorder interface {
	Append(ctx context.Context, s model.Submission) error
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Submission
}

// Worker processes submissions until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the loop to exit.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	recorder Recorder
	name     string

	processed *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(q Queue, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		recorder:  recorder,
		name:      "worker",
		processed: new(atomic.Int64),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	submissions := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-submissions:
			if !ok {
				return
			}
			if err := w.process(ctx, s); err != nil {
				w.logger.Error(ctx, "error processing submission", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns how many submissions this worker stored.
func (w *InMemoryWorker) Processed() int64 {
	return w.processed.Load()
}

func (w *InMemoryWorker) process(ctx context.Context, s model.Submission) error {
	if err := w.recorder.Append(ctx, s); err != nil {
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "append failed for submission",
			logger.String("eventID", s.EventID),
			logger.String("member", s.MemberID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to store submission %s: %w", s.EventID, err)
	}
	w.processed.Add(1)
	metrics.RecordSubmissionIngested()
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. A non-positive count picks a default
// based on the number of CPUs.
func NewPool(workerCount int, q Queue, recorder Recorder) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range pool.workers {
		pool.workers[i] = NewInMemoryWorker(q, recorder, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Processed returns how many submissions the pool stored.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Shutdown closes the queue and waits for every worker to drain and exit.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
		}
	}
	return nil
}
