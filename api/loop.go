// File: api/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Event loop contract consumed by queue endpoints.

package api

// Loop is a single-threaded cooperative event loop owned by one component.
// All methods are safe to call from any goroutine; tasks and readiness
// callbacks always run on the loop's own goroutine.
type Loop interface {
	// Post schedules task for execution on the loop, in FIFO order.
	Post(task func()) error

	// RegisterReadable invokes onReady on the loop whenever p is ready.
	RegisterReadable(p Pollable, onReady func()) (Registration, error)

	// UnregisterReadable stops dispatch for a registration.
	UnregisterReadable(r Registration) error
}
