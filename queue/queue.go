// File: queue/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded FIFO core: storage, its guard and the non-blocking try operations.

package queue

import (
	"fmt"
	"log/slog"
	"sync"

	deque "github.com/eapache/queue"

	"github.com/momentics/hioload-handoff/api"
)

// Queue is a bounded, thread-safe FIFO with one registrable callback per
// direction. The zero value is not usable; construct with New.
//
// At every guard boundary the dequeue signal holds exactly Len() units and
// the enqueue signal holds Cap()-Len() units minus slots an enqueue pump has
// reserved while its producer callback runs.
type Queue[T any] struct {
	name       string
	capacity   int
	pumpBudget int
	log        *slog.Logger

	mu      sync.Mutex // guards storage and closed; never held across callbacks
	storage *deque.Queue
	closed  bool

	enqueue endpoint // signal counts free slots
	dequeue endpoint // signal counts resident items

	enqueueFn EnqueueFunc[T] // guarded by enqueue.mu
	dequeueFn DequeueFunc    // guarded by dequeue.mu

	stats counters
}

// New creates a queue holding at most capacity items.
func New[T any](capacity int, opts ...Option) (*Queue[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if capacity < 1 {
		return nil, fmt.Errorf("queue %s: capacity %d: %w", o.name, capacity, api.ErrInvalidArgument)
	}
	slots, err := o.signals(uint64(capacity))
	if err != nil {
		return nil, fmt.Errorf("queue %s: enqueue signal: %w", o.name, err)
	}
	items, err := o.signals(0)
	if err != nil {
		slots.Close()
		return nil, fmt.Errorf("queue %s: dequeue signal: %w", o.name, err)
	}
	q := &Queue[T]{
		name:       o.name,
		capacity:   capacity,
		pumpBudget: o.pumpBudget,
		log:        o.logger.With("queue", o.name),
		storage:    deque.New(),
		enqueue:    endpoint{dir: Enqueue, signal: slots},
		dequeue:    endpoint{dir: Dequeue, signal: items},
	}
	return q, nil
}

// Name returns the queue label.
func (q *Queue[T]) Name() string {
	return q.name
}

// Cap returns the fixed capacity.
func (q *Queue[T]) Cap() int {
	return q.capacity
}

// Len returns the number of resident items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.storage.Length()
}

// TryEnqueue appends item unless the queue is full. It returns api.ErrFull
// (matching api.IsWouldBlock) without mutating state when no slot is free,
// and api.ErrQueueClosed after Close.
func (q *Queue[T]) TryEnqueue(item T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return api.ErrQueueClosed
	}
	// A slot may be free in storage yet reserved by a running enqueue pump.
	if q.storage.Length() >= q.capacity || !q.enqueue.signal.TryAcquire() {
		q.mu.Unlock()
		q.stats.full.Add(1)
		q.log.Debug("enqueue backpressure", "cap", q.capacity)
		return api.ErrFull
	}
	q.pushLocked(item)
	q.mu.Unlock()
	return nil
}

// TryDequeue removes and returns the head item. ok is false when the queue is
// empty; the queue is left untouched in that case.
func (q *Queue[T]) TryDequeue() (item T, ok bool) {
	q.mu.Lock()
	if q.storage.Length() == 0 {
		q.mu.Unlock()
		q.stats.empty.Add(1)
		return item, false
	}
	if !q.closed && !q.dequeue.signal.TryAcquire() {
		n := q.storage.Length()
		q.mu.Unlock()
		q.fault(Dequeue, "dequeue", fmt.Sprintf("item signal empty with %d resident items", n))
	}
	item, _ = q.storage.Remove().(T)
	if !q.closed {
		q.enqueue.signal.Release(1)
	}
	q.mu.Unlock()
	q.stats.dequeued.Add(1)
	return item, true
}

// pushLocked appends and publishes one item. The caller holds q.mu and a
// slot unit.
func (q *Queue[T]) pushLocked(item T) {
	q.storage.Add(item)
	q.dequeue.signal.Release(1)
	q.stats.enqueued.Add(1)
}

// Stats returns a snapshot of the queue counters.
func (q *Queue[T]) Stats() Stats {
	return Stats{
		Len:            q.Len(),
		Cap:            q.capacity,
		Enqueued:       q.stats.enqueued.Load(),
		Dequeued:       q.stats.dequeued.Load(),
		FullRejections: q.stats.full.Load(),
		EmptyPolls:     q.stats.empty.Load(),
		PumpWakeups:    q.stats.pumpWakeups.Load(),
		PumpCalls:      q.stats.pumpCalls.Load(),
	}
}

// Close releases both readiness signals. Both directions must already be
// unregistered; closing with a live registration panics. Items still resident
// can be drained with TryDequeue afterwards.
func (q *Queue[T]) Close() error {
	for _, e := range []*endpoint{&q.enqueue, &q.dequeue} {
		if e.currentState() != Unregistered {
			q.fault(e.dir, "close", "direction still registered")
		}
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	errSlots := q.enqueue.signal.Close()
	errItems := q.dequeue.signal.Close()
	if errSlots != nil {
		return fmt.Errorf("queue %s: close enqueue signal: %w", q.name, errSlots)
	}
	if errItems != nil {
		return fmt.Errorf("queue %s: close dequeue signal: %w", q.name, errItems)
	}
	return nil
}

// fault reports a protocol violation and panics. The guard must not be held.
func (q *Queue[T]) fault(dir Direction, op, reason string) {
	err := api.NewError(api.ErrCodeProtocolViolation,
		fmt.Sprintf("queue %s: %s %s: %s", q.name, op, dir, reason)).
		WithContext("queue", q.name).
		WithContext("direction", dir.String()).
		WithContext("op", op)
	q.log.Error("protocol violation", "direction", dir.String(), "op", op, "reason", reason)
	panic(err)
}
