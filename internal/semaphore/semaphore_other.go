//go:build !linux

// File: internal/semaphore/semaphore_other.go
// Author: momentics <momentics@gmail.com>
//
// Platforms without eventfd fall back to the counter.

package semaphore

import "github.com/momentics/hioload-handoff/api"

func newPlatform(initial uint64) (api.ReadinessSignal, error) {
	return NewCounter(initial), nil
}
