// File: internal/concurrency/eventloop.go
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// EventLoop is a single-goroutine cooperative loop. It owns a reactor that
// multiplexes readiness signals, plus a FIFO inbox of posted tasks whose own
// wake signal is registered in the same reactor, so posted work and queue
// readiness are served by one blocking poll.

package concurrency

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"code.hybscloud.com/atomix"
	deque "github.com/eapache/queue"

	"github.com/momentics/hioload-handoff/affinity"
	"github.com/momentics/hioload-handoff/api"
	"github.com/momentics/hioload-handoff/reactor"
)

var _ api.Loop = (*EventLoop)(nil)

// LoopConfig parameterizes an EventLoop.
type LoopConfig struct {
	Name         string        // used in logs and probes
	BatchSize    int           // posted tasks run per wakeup; <= 0 means 64
	PollTimeout  time.Duration // upper bound of one poll; negative blocks
	LockOSThread bool          // run the loop on a dedicated OS thread
	CPU          int           // pin the thread to this CPU when >= 0
	Reactor      api.Reactor   // nil selects reactor.New()
	Logger       *slog.Logger  // nil selects slog.Default()
}

// EventLoop implements api.Loop.
type EventLoop struct {
	name        string
	reactor     api.Reactor
	wake        api.ReadinessSignal
	wakeReg     api.Registration
	batchSize   int
	pollTimeout time.Duration
	lockThread  bool
	cpu         int
	log         *slog.Logger

	mu     sync.Mutex // guards inbox and closed
	inbox  *deque.Queue
	closed bool

	running  atomic.Bool
	quit     atomix.Bool
	doneCh   chan struct{}
	stopOnce sync.Once

	posted   atomix.Int64
	executed atomix.Int64
	wakeups  atomix.Int64
}

// NewEventLoop creates a loop. It does not start running until Run or Start.
func NewEventLoop(cfg LoopConfig) (*EventLoop, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := cfg.Reactor
	if r == nil {
		var err error
		if r, err = reactor.New(); err != nil {
			return nil, fmt.Errorf("eventloop %s: %w", cfg.Name, err)
		}
	}
	wake, err := r.NewSignal(0)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("eventloop %s: wake signal: %w", cfg.Name, err)
	}
	el := &EventLoop{
		name:        cfg.Name,
		reactor:     r,
		wake:        wake,
		batchSize:   cfg.BatchSize,
		pollTimeout: cfg.PollTimeout,
		lockThread:  cfg.LockOSThread,
		cpu:         cfg.CPU,
		log:         cfg.Logger.With("loop", cfg.Name),
		inbox:       deque.New(),
		doneCh:      make(chan struct{}),
	}
	if el.wakeReg, err = r.Register(wake.Pollable(), el.runPosted); err != nil {
		wake.Close()
		r.Close()
		return nil, fmt.Errorf("eventloop %s: register wake signal: %w", cfg.Name, err)
	}
	return el, nil
}

// Name returns the configured loop name.
func (el *EventLoop) Name() string {
	return el.name
}

// Reactor exposes the loop's reactor, mainly so callers can build matching
// signals with NewSignal.
func (el *EventLoop) Reactor() api.Reactor {
	return el.reactor
}

// Post schedules task on the loop goroutine.
func (el *EventLoop) Post(task func()) error {
	el.mu.Lock()
	if el.closed {
		el.mu.Unlock()
		return api.ErrLoopClosed
	}
	el.inbox.Add(task)
	el.mu.Unlock()
	el.posted.Add(1)
	el.wake.Release(1)
	return nil
}

// RegisterReadable dispatches onReady on the loop while p is ready.
func (el *EventLoop) RegisterReadable(p api.Pollable, onReady func()) (api.Registration, error) {
	el.mu.Lock()
	closed := el.closed
	el.mu.Unlock()
	if closed {
		return 0, api.ErrLoopClosed
	}
	return el.reactor.Register(p, onReady)
}

// UnregisterReadable stops dispatch for r.
func (el *EventLoop) UnregisterReadable(r api.Registration) error {
	return el.reactor.Unregister(r)
}

// Pending returns the number of posted tasks not yet run.
func (el *EventLoop) Pending() int {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.inbox.Length()
}

// Run polls until ctx is done or Stop is called. It returns ErrLoopRunning if
// the loop already runs.
func (el *EventLoop) Run(ctx context.Context) error {
	if !el.running.CompareAndSwap(false, true) {
		return api.ErrLoopRunning
	}
	defer close(el.doneCh)

	if el.lockThread {
		release, err := affinity.PinLoopThread(el.cpu)
		if err != nil {
			el.log.Warn("cpu affinity not applied", "cpu", el.cpu, "err", err)
		}
		defer release()
	}
	stopWatch := context.AfterFunc(ctx, el.interrupt)
	defer stopWatch()

	el.log.Info("event loop started")
	defer el.log.Info("event loop stopped")
	for !el.quit.LoadAcquire() {
		if _, err := el.reactor.Poll(el.pollTimeout); err != nil {
			el.log.Error("reactor poll failed", "err", err)
			return fmt.Errorf("eventloop %s: %w", el.name, err)
		}
	}
	return ctx.Err()
}

// Start runs the loop on a new goroutine.
func (el *EventLoop) Start() {
	go func() {
		if err := el.Run(context.Background()); err != nil {
			el.log.Error("event loop exited", "err", err)
		}
	}()
}

// Stop ends the loop, waits for its goroutine and releases the reactor.
// Tasks still in the inbox are dropped. Stop must not be called from the
// loop goroutine itself.
func (el *EventLoop) Stop() {
	el.stopOnce.Do(func() {
		el.mu.Lock()
		el.closed = true
		el.mu.Unlock()

		el.interrupt()
		if el.running.Load() {
			<-el.doneCh
		}
		if err := el.reactor.Unregister(el.wakeReg); err != nil {
			el.log.Debug("wake signal already unregistered", "err", err)
		}
		el.wake.Close()
		el.reactor.Close()
	})
}

// Done is closed once Run has returned.
func (el *EventLoop) Done() <-chan struct{} {
	return el.doneCh
}

// Stats returns loop counters for debug probes.
func (el *EventLoop) Stats() map[string]any {
	return map[string]any{
		"posted":   el.posted.Load(),
		"executed": el.executed.Load(),
		"wakeups":  el.wakeups.Load(),
		"pending":  el.Pending(),
	}
}

func (el *EventLoop) interrupt() {
	el.quit.StoreRelease(true)
	el.wake.Release(1)
}

// runPosted is the wake signal callback. It drains the wake units and runs at
// most batchSize tasks; leftovers re-arm the signal so readiness callbacks of
// other sources interleave with a long inbox.
func (el *EventLoop) runPosted() {
	el.wakeups.Add(1)
	for el.wake.TryAcquire() {
	}
	for i := 0; i < el.batchSize; i++ {
		if el.quit.LoadAcquire() {
			return
		}
		el.mu.Lock()
		if el.inbox.Length() == 0 {
			el.mu.Unlock()
			return
		}
		task := el.inbox.Remove().(func())
		el.mu.Unlock()

		task()
		el.executed.Add(1)
	}
	if el.Pending() > 0 {
		el.wake.Release(1)
	}
}
