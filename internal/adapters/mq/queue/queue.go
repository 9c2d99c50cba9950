// Package queue is the bounded mailbox that feeds commands to a session's
// single writer goroutine.
package queue

import (
	"context"
	"sync"

	"github.com/okian/pixelrace/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 64
)

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue[T any] interface {
	// Enqueue adds an item to the queue.
	// Returns ErrFull when the queue is at capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, item T) error

	// Dequeue returns the channel items are delivered on.
	// The channel is closed when the queue is closed.
	Dequeue() <-chan T

	// Len returns the current number of queued items.
	Len() int

	// Close gracefully shuts down the queue.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue[T any] struct {
	items    chan T
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue[T any](opts ...Option) *InMemoryQueue[T] {
	s := settings{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(&s)
	}
	return &InMemoryQueue[T]{
		items:    make(chan T, s.capacity),
		capacity: s.capacity,
	}
}

// Enqueue adds an item without blocking.
func (q *InMemoryQueue[T]) Enqueue(ctx context.Context, item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	select {
	case q.items <- item:
		metrics.UpdateCommandQueueLength(len(q.items))
		return nil
	default:
		return ErrFull
	}
}

// Dequeue returns the channel items are delivered on.
func (q *InMemoryQueue[T]) Dequeue() <-chan T {
	return q.items
}

// Len returns the current number of queued items.
func (q *InMemoryQueue[T]) Len() int {
	return len(q.items)
}

// Capacity returns the maximum number of queued items.
func (q *InMemoryQueue[T]) Capacity() int {
	return q.capacity
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue[T]) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
