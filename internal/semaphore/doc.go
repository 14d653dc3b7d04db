// File: internal/semaphore/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package semaphore implements the reactive counting semaphore behind every
// queue direction and every event loop wakeup.
//
// Two variants satisfy api.ReadinessSignal:
//   - an eventfd in semaphore mode on Linux, pollable by epoll;
//   - a lock-free atomic counter with a watcher hook, usable on every platform
//     together with the watch reactor.
//
// New picks the platform default. A signal must only be registered with a
// reactor of the matching kind; reactor.Reactor.NewSignal always does.
package semaphore
