// File: internal/semaphore/semaphore.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package semaphore

import (
	"fmt"

	"github.com/momentics/hioload-handoff/api"
)

// Ensure factories match the shared constructor contract.
var (
	_ api.SignalFactory = New
	_ api.SignalFactory = NewCounting
)

// New builds the platform's preferred signal seeded with initial units.
func New(initial uint64) (api.ReadinessSignal, error) {
	return newPlatform(initial)
}

// NewCounting builds the portable counter signal.
func NewCounting(initial uint64) (api.ReadinessSignal, error) {
	return NewCounter(initial), nil
}

// fault aborts on a kernel failure the signal cannot recover from.
func fault(op string, err error) {
	panic(api.NewError(api.ErrCodeInternal, fmt.Sprintf("semaphore: %s: %v", op, err)).
		WithContext("op", op))
}
