// Package queue buffers accepted submissions between the HTTP handler and
// the worker pool.
package queue

import (
	"context"
	"sync"

	"github.com/okian/streakd/internal/domain/model"
	"github.com/okian/streakd/pkg/metrics"
)

const defaultQueueCapacity = 100_000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a submission. It returns false if the queue is full or
	// closed and the submission was not accepted.
	Enqueue(ctx context.Context, s model.Submission) bool

	// Dequeue returns a channel of submissions. It is closed when the queue
	// is closed and drained, or when ctx is done.
	Dequeue(ctx context.Context) <-chan model.Submission

	Len(ctx context.Context) int

	// Close stops accepting submissions. Buffered ones can still be drained.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	submissions chan model.Submission
	capacity    int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.submissions = make(chan model.Submission, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a submission to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s model.Submission) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return false
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return false
	}

	select {
	case q.submissions <- s:
		metrics.UpdateQueueSize(len(q.submissions))
		return true
	default:
		metrics.RecordQueueEnqueueError("full")
		return false
	}
}

// Dequeue returns a channel that receives submissions as they arrive.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.Submission {
	out := make(chan model.Submission)
	go func() {
		defer close(out)
		for s := range q.submissions {
			select {
			case out <- s:
				metrics.UpdateQueueSize(len(q.submissions))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued submissions.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.submissions)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops the queue. Closing twice is a no-op.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.submissions)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
