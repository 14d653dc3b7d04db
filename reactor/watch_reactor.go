// File: reactor/watch_reactor.go
// Author: momentics <momentics@gmail.com>
//
// Portable reactor over counter signals. Releases push the registration onto
// a ready list and kick the polling goroutine; a source that is still ready
// after its callback is queued again, giving level-triggered behavior without
// kernel descriptors.

package reactor

import (
	"fmt"
	"sync"
	"time"

	"github.com/momentics/hioload-handoff/api"
	"github.com/momentics/hioload-handoff/internal/semaphore"
)

var (
	_ api.Reactor = (*watchReactor)(nil)

	watchSignalFactory api.SignalFactory = semaphore.NewCounting
)

type watchEntry struct {
	p      api.WatchPollable
	cb     func()
	cancel func()
	queued bool
}

type watchReactor struct {
	mu      sync.Mutex
	next    api.Registration
	entries map[api.Registration]*watchEntry
	ready   []api.Registration
	spare   []api.Registration
	kick    chan struct{}
	closed  bool
}

// NewWatch constructs the portable reactor. It accepts only WatchPollable
// sources, such as the counter signals it creates itself.
func NewWatch() api.Reactor {
	return &watchReactor{
		entries: make(map[api.Registration]*watchEntry),
		kick:    make(chan struct{}, 1),
	}
}

func (r *watchReactor) Register(p api.Pollable, cb func()) (api.Registration, error) {
	wp, ok := p.(api.WatchPollable)
	if !ok {
		return 0, fmt.Errorf("watch register %T: %w", p, api.ErrBackendMismatch)
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, api.ErrReactorClosed
	}
	r.next++
	reg := r.next
	e := &watchEntry{p: wp, cb: cb}
	r.entries[reg] = e
	r.mu.Unlock()

	cancel := wp.Watch(func() { r.markReady(reg) })
	r.mu.Lock()
	_, live := r.entries[reg]
	if live {
		e.cancel = cancel
	}
	r.mu.Unlock()
	if !live {
		// Unregistered or closed while subscribing.
		cancel()
		return reg, nil
	}
	if wp.Ready() {
		r.markReady(reg)
	}
	return reg, nil
}

func (r *watchReactor) Unregister(reg api.Registration) error {
	r.mu.Lock()
	e, ok := r.entries[reg]
	delete(r.entries, reg)
	var cancel func()
	if ok {
		cancel = e.cancel
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("watch unregister %d: %w", reg, api.ErrNotFound)
	}
	if cancel != nil {
		cancel()
	}
	return nil
}

// markReady queues reg once and wakes Poll. Called from Release on any
// goroutine, so it never runs user code.
func (r *watchReactor) markReady(reg api.Registration) {
	r.mu.Lock()
	e, ok := r.entries[reg]
	if !ok || e.queued || r.closed {
		r.mu.Unlock()
		return
	}
	e.queued = true
	r.ready = append(r.ready, reg)
	r.mu.Unlock()

	select {
	case r.kick <- struct{}{}:
	default:
	}
}

func (r *watchReactor) Poll(timeout time.Duration) (int, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, api.ErrReactorClosed
	}
	pending := len(r.ready)
	r.mu.Unlock()

	if pending == 0 && !r.wait(timeout) {
		return 0, nil
	}

	r.mu.Lock()
	batch := r.ready
	r.ready = r.spare[:0]
	for _, reg := range batch {
		if e, ok := r.entries[reg]; ok {
			e.queued = false
		}
	}
	r.mu.Unlock()

	dispatched := 0
	for _, reg := range batch {
		r.mu.Lock()
		e, ok := r.entries[reg]
		r.mu.Unlock()
		if !ok || !e.p.Ready() {
			continue
		}
		e.cb()
		dispatched++
		if e.p.Ready() {
			r.markReady(reg)
		}
	}

	r.mu.Lock()
	r.spare = batch[:0]
	r.mu.Unlock()
	return dispatched, nil
}

// wait blocks for a kick. It reports false on timeout.
func (r *watchReactor) wait(timeout time.Duration) bool {
	switch {
	case timeout < 0:
		<-r.kick
		return true
	case timeout == 0:
		select {
		case <-r.kick:
			return true
		default:
			return false
		}
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-r.kick:
		return true
	case <-t.C:
		return false
	}
}

func (r *watchReactor) NewSignal(initial uint64) (api.ReadinessSignal, error) {
	return watchSignalFactory(initial)
}

func (r *watchReactor) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	cancels := make([]func(), 0, len(r.entries))
	for _, e := range r.entries {
		if e.cancel != nil {
			cancels = append(cancels, e.cancel)
		}
	}
	r.entries = make(map[api.Registration]*watchEntry)
	r.ready = nil
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	select {
	case r.kick <- struct{}{}:
	default:
	}
	return nil
}
