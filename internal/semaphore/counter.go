// File: internal/semaphore/counter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Portable counting signal: atomic count plus a single wake subscriber.

package semaphore

import (
	"math"
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"

	"github.com/momentics/hioload-handoff/api"
)

var (
	_ api.ReadinessSignal = (*Counter)(nil)
	_ api.WatchPollable   = (*counterPollable)(nil)
)

type watcher struct {
	wake func()
}

// Counter is a lock-free counting semaphore. Release publishes with release
// ordering and TryAcquire takes with acquire ordering, so whatever the
// releasing goroutine wrote before Release is visible after TryAcquire.
type Counter struct {
	count   atomix.Int64
	watcher atomic.Pointer[watcher]
	closed  atomix.Bool
}

// NewCounter returns a counter seeded with initial units.
func NewCounter(initial uint64) *Counter {
	c := &Counter{}
	c.count.StoreRelease(clamp(initial))
	return c
}

// Release adds n units and wakes the subscriber, if any.
func (c *Counter) Release(n uint64) {
	if n == 0 {
		return
	}
	if c.count.AddAcqRel(clamp(n)) < 0 {
		fault("release", api.ErrInvalidArgument)
	}
	if w := c.watcher.Load(); w != nil {
		w.wake()
	}
}

// TryAcquire takes one unit if available.
func (c *Counter) TryAcquire() bool {
	sw := spin.Wait{}
	for {
		n := c.count.LoadAcquire()
		if n <= 0 {
			return false
		}
		if c.count.CompareAndSwapAcqRel(n, n-1) {
			return true
		}
		sw.Once()
	}
}

// Count returns the current number of units.
func (c *Counter) Count() uint64 {
	n := c.count.LoadAcquire()
	if n < 0 {
		return 0
	}
	return uint64(n)
}

// Pollable exposes the counter to a watch reactor.
func (c *Counter) Pollable() api.Pollable {
	return (*counterPollable)(c)
}

// Close detaches the subscriber. The count stays usable.
func (c *Counter) Close() error {
	c.closed.StoreRelease(true)
	c.watcher.Store(nil)
	return nil
}

type counterPollable Counter

func (p *counterPollable) Ready() bool {
	return (*Counter)(p).count.LoadAcquire() > 0
}

func (p *counterPollable) Watch(wake func()) (cancel func()) {
	c := (*Counter)(p)
	if c.closed.LoadAcquire() {
		return func() {}
	}
	w := &watcher{wake: wake}
	c.watcher.Store(w)
	return func() { c.watcher.CompareAndSwap(w, nil) }
}

func clamp(n uint64) int64 {
	if n > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}
