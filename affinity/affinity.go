// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity of event loop threads. Platform-specific
// implementations are located in separate files guarded by build tags.

package affinity

import "runtime"

// SetAffinity pins the current OS thread to a given logical CPU on supported
// platforms. The caller must already hold the thread via runtime.LockOSThread.
func SetAffinity(cpuID int) error {
	return setAffinityPlatform(cpuID)
}

// PinLoopThread locks the calling goroutine to its OS thread and, when
// cpuID >= 0, pins that thread. The returned release undoes the lock.
func PinLoopThread(cpuID int) (release func(), err error) {
	runtime.LockOSThread()
	if cpuID >= 0 {
		if err := setAffinityPlatform(cpuID); err != nil {
			runtime.UnlockOSThread()
			return func() {}, err
		}
	}
	return runtime.UnlockOSThread, nil
}
