// File: queue/stats.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package queue

import "code.hybscloud.com/atomix"

// Stats is a point-in-time snapshot of queue counters.
type Stats struct {
	Len            int
	Cap            int
	Enqueued       int64 // successful enqueues, direct or pumped
	Dequeued       int64
	FullRejections int64 // TryEnqueue calls answered with ErrFull
	EmptyPolls     int64 // TryDequeue calls on an empty queue
	PumpWakeups    int64 // loop wakeups of either pump
	PumpCalls      int64 // user callbacks invoked by the pumps
}

// Map flattens the snapshot for debug probes.
func (s Stats) Map() map[string]any {
	return map[string]any{
		"len":             s.Len,
		"cap":             s.Cap,
		"enqueued":        s.Enqueued,
		"dequeued":        s.Dequeued,
		"full_rejections": s.FullRejections,
		"empty_polls":     s.EmptyPolls,
		"pump_wakeups":    s.PumpWakeups,
		"pump_calls":      s.PumpCalls,
	}
}

type counters struct {
	enqueued    atomix.Int64
	dequeued    atomix.Int64
	full        atomix.Int64
	empty       atomix.Int64
	pumpWakeups atomix.Int64
	pumpCalls   atomix.Int64
}
