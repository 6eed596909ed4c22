// Package catalog ingests card records into the store.
//
// Ingestion is the one asynchronous pipeline in the service: a bounded
// queue of catalog records drained by a small worker pool that upserts into
// the card store. The voting write path never goes through here.
package catalog

import (
	"context"
	"sync"

	"github.com/andli/cardartvoter/internal/domain/model"
	"github.com/andli/cardartvoter/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10_000
)

// Queue provides non-blocking enqueue and channel-based dequeue semantics
// for catalog records.
type Queue interface {
	// Enqueue adds a record. Returns false when the queue is full or
	// closed (backpressure).
	Enqueue(ctx context.Context, seed model.CardSeed) bool

	// Dequeue returns a channel that yields records until the queue is
	// closed and drained.
	Dequeue(ctx context.Context) <-chan model.CardSeed

	// Len returns the current number of queued records.
	Len(ctx context.Context) int

	// Close stops accepting new records.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	records  chan model.CardSeed
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...QueueOption) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.records = make(chan model.CardSeed, q.capacity)
	metrics.UpdateIngestQueue(0, q.capacity)
	return q
}

// QueueOption applies a configuration option to the InMemoryQueue.
type QueueOption func(*InMemoryQueue)

// WithCapacity bounds the queue.
func WithCapacity(n int) QueueOption {
	return func(q *InMemoryQueue) {
		if n > 0 {
			q.capacity = n
		}
	}
}

// Enqueue adds a record to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, seed model.CardSeed) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordIngestEnqueueError()
		return false
	}

	select {
	case q.records <- seed:
		metrics.UpdateIngestQueue(len(q.records), q.capacity)
		return true
	case <-ctx.Done():
		metrics.RecordIngestEnqueueError()
		return false
	default:
		metrics.RecordIngestEnqueueError()
		return false
	}
}

// Dequeue returns a channel yielding queued records.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.CardSeed {
	out := make(chan model.CardSeed)
	go func() {
		defer close(out)
		for seed := range q.records {
			select {
			case out <- seed:
				metrics.UpdateIngestQueue(len(q.records), q.capacity)
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued records.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	return len(q.records)
}

// Close stops accepting new records; queued records remain consumable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.records)
	q.closed = true
	return nil
}
