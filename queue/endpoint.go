// File: queue/endpoint.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-direction registration state machine and the callback pumps the owning
// loops run when a direction's readiness signal has units.

package queue

import (
	"sync"

	"github.com/momentics/hioload-handoff/api"
)

// EnqueueFunc produces the next item for the queue. It is invoked on the
// registered loop once per free slot. Returning false hands the slot back and
// ends the current pump turn; a producer with nothing left should call
// UnregisterEnqueue, otherwise the free slot keeps waking its loop.
//
// The slot is reserved before fn runs, so a TryEnqueue issued while fn runs
// sees the queue as full. Panics are not recovered: if fn panics the reserved
// slot is never returned and the queue's usable capacity drops by one.
type EnqueueFunc[T any] func() (item T, ok bool)

// DequeueFunc is invoked on the registered loop once per resident item and is
// expected to call TryDequeue. A panic in fn is not recovered and leaves the
// direction marked as pumping.
type DequeueFunc func()

// Direction names one side of a queue.
type Direction int

const (
	Enqueue Direction = iota
	Dequeue
)

func (d Direction) String() string {
	if d == Enqueue {
		return "enqueue"
	}
	return "dequeue"
}

// EndpointState is the registration state of one direction.
type EndpointState int

const (
	Unregistered EndpointState = iota
	Idle                       // registered, waiting for readiness
	Pumping                    // registered, pump running on the loop
)

func (s EndpointState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pumping:
		return "pumping"
	default:
		return "unregistered"
	}
}

type endpoint struct {
	dir    Direction
	signal api.ReadinessSignal

	mu         sync.Mutex
	registered bool
	pumping    bool
	gen        uint64 // bumped on every register; stale pumps stop on mismatch
	loop       api.Loop
	reg        api.Registration
}

func (e *endpoint) currentState() EndpointState {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case !e.registered:
		return Unregistered
	case e.pumping:
		return Pumping
	default:
		return Idle
	}
}

// State reports the registration state of a direction.
func (q *Queue[T]) State(dir Direction) EndpointState {
	return q.endpoint(dir).currentState()
}

func (q *Queue[T]) endpoint(dir Direction) *endpoint {
	if dir == Enqueue {
		return &q.enqueue
	}
	return &q.dequeue
}

// RegisterEnqueue binds fn to loop. fn is pulled once per free slot until
// UnregisterEnqueue. Registering twice panics.
func (q *Queue[T]) RegisterEnqueue(loop api.Loop, fn EnqueueFunc[T]) {
	if fn == nil {
		q.fault(Enqueue, "register", "nil callback")
	}
	q.register(&q.enqueue, loop, func(set bool) {
		if set {
			q.enqueueFn = fn
		} else {
			q.enqueueFn = nil
		}
	}, q.pumpEnqueue)
}

// UnregisterEnqueue detaches the enqueue callback. It is safe to call from
// inside that callback. Unregistering an idle direction panics.
func (q *Queue[T]) UnregisterEnqueue() {
	q.unregister(&q.enqueue, func() { q.enqueueFn = nil })
}

// RegisterDequeue binds fn to loop. fn runs once per resident item until
// UnregisterDequeue. Registering twice panics.
func (q *Queue[T]) RegisterDequeue(loop api.Loop, fn DequeueFunc) {
	if fn == nil {
		q.fault(Dequeue, "register", "nil callback")
	}
	q.register(&q.dequeue, loop, func(set bool) {
		if set {
			q.dequeueFn = fn
		} else {
			q.dequeueFn = nil
		}
	}, q.pumpDequeue)
}

// UnregisterDequeue detaches the dequeue callback. It is safe to call from
// inside that callback. Unregistering an idle direction panics.
func (q *Queue[T]) UnregisterDequeue() {
	q.unregister(&q.dequeue, func() { q.dequeueFn = nil })
}

// register binds the callback under e.mu via bind(true); bind(false) undoes it.
func (q *Queue[T]) register(e *endpoint, loop api.Loop, bind func(set bool), pump func(gen uint64)) {
	if loop == nil {
		q.fault(e.dir, "register", "nil loop")
	}
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		q.fault(e.dir, "register", "queue closed")
	}

	e.mu.Lock()
	if e.registered {
		e.mu.Unlock()
		q.fault(e.dir, "register", "already registered")
	}
	e.gen++
	gen := e.gen
	bind(true)
	// The loop may fire the pump before we store reg; the pump blocks on e.mu
	// until registration completes.
	reg, err := loop.RegisterReadable(e.signal.Pollable(), func() { pump(gen) })
	if err != nil {
		bind(false)
		e.mu.Unlock()
		q.fault(e.dir, "register", "loop rejected readiness signal: "+err.Error())
	}
	e.registered = true
	e.loop = loop
	e.reg = reg
	e.mu.Unlock()
	q.log.Debug("endpoint registered", "direction", e.dir.String())
}

func (q *Queue[T]) unregister(e *endpoint, unbind func()) {
	e.mu.Lock()
	if !e.registered {
		e.mu.Unlock()
		q.fault(e.dir, "unregister", "not registered")
	}
	loop, reg := e.loop, e.reg
	e.registered = false
	e.loop = nil
	e.reg = 0
	unbind()
	e.mu.Unlock()

	if err := loop.UnregisterReadable(reg); err != nil {
		q.fault(e.dir, "unregister", "loop lost readiness registration: "+err.Error())
	}
	q.log.Debug("endpoint unregistered", "direction", e.dir.String())
}

// beginTurn marks the pump running if gen is still the live registration.
func (e *endpoint) beginTurn(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.registered || e.gen != gen {
		return false
	}
	e.pumping = true
	return true
}

func (e *endpoint) endTurn(gen uint64) {
	e.mu.Lock()
	if e.gen == gen {
		e.pumping = false
	}
	e.mu.Unlock()
}

// enqueueCallback returns the producer if gen is still live.
func (q *Queue[T]) enqueueCallback(gen uint64) (EnqueueFunc[T], bool) {
	q.enqueue.mu.Lock()
	defer q.enqueue.mu.Unlock()
	if !q.enqueue.registered || q.enqueue.gen != gen {
		return nil, false
	}
	return q.enqueueFn, true
}

func (q *Queue[T]) dequeueCallback(gen uint64) (DequeueFunc, bool) {
	q.dequeue.mu.Lock()
	defer q.dequeue.mu.Unlock()
	if !q.dequeue.registered || q.dequeue.gen != gen {
		return nil, false
	}
	return q.dequeueFn, true
}

func (q *Queue[T]) budgetLeft(n int) bool {
	return q.pumpBudget <= 0 || n < q.pumpBudget
}

// pumpEnqueue runs on the producer's loop: one producer call per slot unit,
// each produced item pushed and published to the dequeue side.
func (q *Queue[T]) pumpEnqueue(gen uint64) {
	if !q.enqueue.beginTurn(gen) {
		return
	}
	defer q.enqueue.endTurn(gen)
	q.stats.pumpWakeups.Add(1)

	for n := 0; q.budgetLeft(n); n++ {
		fn, ok := q.enqueueCallback(gen)
		if !ok || !q.enqueue.signal.TryAcquire() {
			return
		}
		item, produced := fn()
		q.stats.pumpCalls.Add(1)
		if !produced {
			q.enqueue.signal.Release(1)
			return
		}
		q.mu.Lock()
		q.pushLocked(item)
		q.mu.Unlock()
	}
}

// pumpDequeue runs on the consumer's loop: one consumer call per resident
// item. A call that dequeues nothing ends the turn; the level-triggered
// signal brings the pump back while items remain.
func (q *Queue[T]) pumpDequeue(gen uint64) {
	if !q.dequeue.beginTurn(gen) {
		return
	}
	defer q.dequeue.endTurn(gen)
	q.stats.pumpWakeups.Add(1)

	for n := 0; q.budgetLeft(n); n++ {
		fn, ok := q.dequeueCallback(gen)
		if !ok || q.Len() == 0 {
			return
		}
		before := q.stats.dequeued.Load()
		fn()
		q.stats.pumpCalls.Add(1)
		if q.stats.dequeued.Load() == before {
			return
		}
	}
}
