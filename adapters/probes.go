// File: adapters/probes.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Probe wiring for queues and loops. Each probe returns the component's stats
// map; with metrics enabled the probe also publishes the depth gauge.

package adapters

import (
	"github.com/momentics/hioload-handoff/api"
	"github.com/momentics/hioload-handoff/queue"
)

// QueueSource is the part of a queue.Queue[T] a probe reads.
type QueueSource interface {
	Name() string
	Stats() queue.Stats
}

// LoopSource is the part of an event loop a probe reads.
type LoopSource interface {
	Name() string
	Stats() map[string]any
}

// QueueProbeName returns the probe key for a queue.
func QueueProbeName(name string) string { return "queue." + name }

// LoopProbeName returns the probe key for a loop.
func LoopProbeName(name string) string { return "loop." + name }

// RegisterQueue exposes q under "queue.<name>". When metrics is true the
// probe also sets the "queue.<name>.len" metric each time it runs.
func RegisterQueue(ctrl api.Control, q QueueSource, metrics bool) {
	name := QueueProbeName(q.Name())
	ctrl.RegisterDebugProbe(name, func() any {
		st := q.Stats()
		if metrics {
			ctrl.SetMetric(name+".len", st.Len)
		}
		return st.Map()
	})
}

// RegisterLoop exposes l under "loop.<name>".
func RegisterLoop(ctrl api.Control, l LoopSource) {
	ctrl.RegisterDebugProbe(LoopProbeName(l.Name()), func() any {
		return l.Stats()
	})
}
