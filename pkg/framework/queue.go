package framework

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/robofleet/go-robomaster/internal/config"
	"github.com/robofleet/go-robomaster/internal/log"
)

// Queue is a bounded, in-memory channel between workers. Producers never
// block: when the queue is full, Put drops the incoming record (a stale
// telemetry record is still informative) and PutLatest drops the oldest
// (a stale video frame is not). Consumers block on empty.
type Queue[T any] struct {
	name    string
	ch      chan T
	logger  *slog.Logger
	dropped atomic.Uint64
}

// NewQueue creates a queue with the given capacity; capacity <= 0 uses
// config.DefaultQueueSize.
func NewQueue[T any](name string, capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = config.DefaultQueueSize
	}
	return &Queue[T]{
		name:   name,
		ch:     make(chan T, capacity),
		logger: log.With("queue", name),
	}
}

// Put enqueues v, dropping it when the queue is full.
func (q *Queue[T]) Put(v T) {
	select {
	case q.ch <- v:
	default:
		n := q.dropped.Add(1)
		q.logger.Warn("queue full, dropping newest", "dropped_total", n)
	}
}

// PutLatest enqueues v, evicting the oldest records until it fits.
func (q *Queue[T]) PutLatest(v T) {
	for {
		select {
		case q.ch <- v:
			return
		default:
		}
		select {
		case <-q.ch:
			n := q.dropped.Add(1)
			q.logger.Warn("queue full, dropping oldest", "dropped_total", n)
		default:
		}
	}
}

// Get blocks until a record is available or ctx is canceled.
func (q *Queue[T]) Get(ctx context.Context) (T, bool) {
	select {
	case v := <-q.ch:
		return v, true
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

// TryGet returns a record if one is immediately available.
func (q *Queue[T]) TryGet() (T, bool) {
	select {
	case v := <-q.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Len returns the number of queued records.
func (q *Queue[T]) Len() int { return len(q.ch) }

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int { return cap(q.ch) }

// Dropped returns how many records have been dropped so far.
func (q *Queue[T]) Dropped() uint64 { return q.dropped.Load() }
