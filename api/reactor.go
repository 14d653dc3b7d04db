// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Defines the abstract interface for readiness reactors used to multiplex
// counting signals across poll-mode backends (epoll, watch lists).

package api

import "time"

// Registration identifies one readable source inside a Reactor or Loop.
type Registration uint64

// Reactor multiplexes many Pollables on one thread and invokes a callback while
// each of them is ready. Readiness is level-triggered: a source that is still
// ready after its callback returns fires again on the next Poll.
type Reactor interface {
	// Register adds p to the watch set. cb runs on the goroutine calling Poll.
	Register(p Pollable, cb func()) (Registration, error)

	// Unregister removes a source. Dispatch of an event already harvested in
	// the current Poll batch is suppressed.
	Unregister(r Registration) error

	// Poll waits up to timeout (negative blocks indefinitely) and dispatches
	// callbacks of ready sources. It returns the number of callbacks run.
	Poll(timeout time.Duration) (int, error)

	// NewSignal builds a ReadinessSignal of the kind this reactor can poll.
	NewSignal(initial uint64) (ReadinessSignal, error)

	// Close must cleanup the internal poller backend.
	Close() error
}
