// File: fake/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Loop is a manually driven api.Loop. Nothing runs until the test calls Turn,
// so pump behaviour can be asserted step by step on the test goroutine.

package fake

import (
	"sync"

	"github.com/momentics/hioload-handoff/api"
)

var _ api.Loop = (*Loop)(nil)

type watch struct {
	reg     api.Registration
	p       api.Pollable
	onReady func()
}

// Loop is a deterministic single-threaded loop for tests.
type Loop struct {
	mu      sync.Mutex
	tasks   []func()
	watches []watch
	next    api.Registration
	closed  bool

	// Dispatches counts readiness callbacks run by Turn.
	Dispatches int
}

// NewLoop returns an empty manual loop.
func NewLoop() *Loop {
	return &Loop{}
}

// Post queues task for the next Turn.
func (l *Loop) Post(task func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return api.ErrLoopClosed
	}
	l.tasks = append(l.tasks, task)
	return nil
}

// RegisterReadable accepts any pollable; readiness is sampled on Turn.
func (l *Loop) RegisterReadable(p api.Pollable, onReady func()) (api.Registration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, api.ErrLoopClosed
	}
	l.next++
	l.watches = append(l.watches, watch{reg: l.next, p: p, onReady: onReady})
	return l.next, nil
}

// UnregisterReadable drops a registration.
func (l *Loop) UnregisterReadable(reg api.Registration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, w := range l.watches {
		if w.reg == reg {
			l.watches = append(l.watches[:i], l.watches[i+1:]...)
			return nil
		}
	}
	return api.ErrNotFound
}

// Registered returns the number of live readable registrations.
func (l *Loop) Registered() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.watches)
}

// Turn runs the posted tasks, then every registration whose pollable is ready
// once, in registration order. It reports whether anything ran.
func (l *Loop) Turn() bool {
	l.mu.Lock()
	tasks := l.tasks
	l.tasks = nil
	snapshot := append([]watch(nil), l.watches...)
	l.mu.Unlock()

	ran := len(tasks) > 0
	for _, task := range tasks {
		task()
	}
	for _, w := range snapshot {
		if !l.live(w.reg) || !w.p.Ready() {
			continue
		}
		l.mu.Lock()
		l.Dispatches++
		l.mu.Unlock()
		w.onReady()
		ran = true
	}
	return ran
}

// RunUntilIdle turns the loop until a turn runs nothing or max turns pass.
// It returns the number of turns that ran something.
func (l *Loop) RunUntilIdle(max int) int {
	n := 0
	for n < max && l.Turn() {
		n++
	}
	return n
}

// Close rejects further posts and registrations.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

func (l *Loop) live(reg api.Registration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, w := range l.watches {
		if w.reg == reg {
			return true
		}
	}
	return false
}
