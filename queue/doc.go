// File: queue/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package queue implements the bounded handoff queue that moves typed
// messages between components running on separate event loops.
//
// A Queue never blocks a goroutine. Producers and consumers either call
// TryEnqueue/TryDequeue directly, or register one callback per direction on
// their own loop:
//
//	q, _ := queue.New[*Packet](64)
//
//	// consumer loop
//	q.RegisterDequeue(consumerLoop, func() {
//	    if p, ok := q.TryDequeue(); ok {
//	        handle(p)
//	    }
//	})
//
//	// producer loop: pulled once per free slot until it unregisters
//	q.RegisterEnqueue(producerLoop, func() (*Packet, bool) {
//	    p := pending[0]
//	    pending = pending[1:]
//	    if len(pending) == 0 {
//	        q.UnregisterEnqueue()
//	    }
//	    return p, true
//	})
//
// Each direction is backed by a counting readiness signal: free slots for the
// enqueue side, resident items for the dequeue side. A loop wakes the
// direction's callback pump whenever its signal has units, and the pump keeps
// invoking the callback while units remain, so backpressure is expressed as a
// callback that is simply not invoked until a slot frees up.
//
// Registering a direction twice, unregistering an idle direction, or closing
// a queue with a live registration are lifetime bugs in the owner. They panic
// with an *api.Error carrying api.ErrCodeProtocolViolation.
package queue
