// File: api/signal.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Counting readiness signal contract shared by queues, loops and reactors.

package api

// ReadinessSignal is a cross-thread counting semaphore that a reactor can poll.
// Each unit of count stands for one guaranteed future successful try-operation:
// a free slot on the producer side or a resident item on the consumer side.
type ReadinessSignal interface {
	// Release adds n units. It never blocks and may be called from any goroutine.
	Release(n uint64)

	// TryAcquire takes one unit if the count is positive.
	TryAcquire() bool

	// Pollable returns the handle a Reactor multiplexes.
	Pollable() Pollable

	// Close releases the underlying kernel object, if any.
	Close() error
}

// Pollable is the reactor-facing side of a ReadinessSignal.
type Pollable interface {
	// Ready reports whether at least one unit is available, without taking it.
	Ready() bool
}

// FdPollable is a Pollable backed by a kernel descriptor (eventfd on Linux).
type FdPollable interface {
	Pollable
	Fd() uintptr
}

// WatchPollable is a Pollable that pushes wakeups to a subscriber instead of
// exposing a descriptor. Watch replaces any previous subscriber; the returned
// cancel detaches it.
type WatchPollable interface {
	Pollable
	Watch(wake func()) (cancel func())
}

// SignalFactory builds a ReadinessSignal seeded with an initial count.
type SignalFactory func(initial uint64) (ReadinessSignal, error)
