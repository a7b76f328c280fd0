// Package queue buffers submitted actions between the HTTP layer and the
// apply workers. Enqueue never blocks: a full queue is reported as
// backpressure so the API can tell the caller to retry.
package queue

import (
	"context"
	"sync"

	"github.com/coldcall/arena/internal/domain/model"
	"github.com/coldcall/arena/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 4096
)

// Action is the payload type flowing through the queue.
type Action = model.Action

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an action to the queue.
	// Returns false if the queue is full and the action was not enqueued.
	Enqueue(ctx context.Context, a Action) bool

	// Dequeue returns a channel receiving actions as they become available.
	// The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Action

	// Len returns the current number of queued actions.
	Len(ctx context.Context) int

	// Close shuts the queue down; no further enqueues are accepted.
	Close() error
}

// InMemoryQueue implements Queue over a buffered channel.
type InMemoryQueue struct {
	actions  chan Action
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a queue with the given options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.actions = make(chan Action, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds an action to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, a Action) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return false
	}

	select {
	case q.actions <- a:
		q.publishDepth()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError("context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError("full")
		return false
	}
}

// Dequeue returns a channel receiving actions as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Action {
	out := make(chan Action)
	go func() {
		defer close(out)
		for a := range q.actions {
			select {
			case out <- a:
				q.publishDepth()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued actions.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	return len(q.actions)
}

// Close shuts the queue down.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.actions)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) publishDepth() {
	size := len(q.actions)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
