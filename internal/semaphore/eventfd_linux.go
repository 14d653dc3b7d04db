//go:build linux

// File: internal/semaphore/eventfd_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// eventfd(2) in EFD_SEMAPHORE mode: every read takes exactly one unit and the
// descriptor is readable while the count is positive, which is the
// level-triggered readiness an epoll reactor observes.

package semaphore

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-handoff/api"
)

var (
	_ api.ReadinessSignal = (*EventFD)(nil)
	_ api.FdPollable      = (*eventFDPollable)(nil)
)

// EventFD is a kernel-backed counting semaphore.
type EventFD struct {
	mu     sync.RWMutex // write-held only by Close
	fd     int
	closed bool
}

func newPlatform(initial uint64) (api.ReadinessSignal, error) {
	e, err := NewEventFD(initial)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// NewEventFD creates a non-blocking semaphore-mode eventfd seeded with initial.
func NewEventFD(initial uint64) (*EventFD, error) {
	seed := initial
	if seed > math.MaxUint32 {
		seed = 0
	}
	fd, err := unix.Eventfd(uint(seed), unix.EFD_SEMAPHORE|unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("semaphore: eventfd: %w", err)
	}
	e := &EventFD{fd: fd}
	if seed != initial {
		e.Release(initial)
	}
	return e, nil
}

// Release adds n units. A release on a closed signal is dropped.
func (e *EventFD) Release(n uint64) {
	if n == 0 {
		return
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], n)
	for {
		_, err := unix.Write(e.fd, buf[:])
		if err == nil {
			return
		}
		if err == unix.EINTR {
			continue
		}
		// EAGAIN here means the kernel counter would overflow.
		fault("eventfd write", err)
	}
}

// TryAcquire reads one unit; EAGAIN means the count is zero.
func (e *EventFD) TryAcquire() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return false
	}
	var buf [8]byte
	for {
		_, err := unix.Read(e.fd, buf[:])
		switch err {
		case nil:
			return true
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return false
		default:
			fault("eventfd read", err)
			return false
		}
	}
}

// Pollable exposes the descriptor to an epoll reactor.
func (e *EventFD) Pollable() api.Pollable {
	return (*eventFDPollable)(e)
}

// Close releases the descriptor. Further Release calls are dropped and
// TryAcquire reports false.
func (e *EventFD) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return unix.Close(e.fd)
}

type eventFDPollable EventFD

func (p *eventFDPollable) Fd() uintptr {
	return uintptr(p.fd)
}

// Ready polls the descriptor with a zero timeout.
func (p *eventFDPollable) Ready() bool {
	e := (*EventFD)(p)
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return false
	}
	fds := []unix.PollFd{{Fd: int32(e.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, 0)
		if err == unix.EINTR {
			continue
		}
		return err == nil && n > 0 && fds[0].Revents&unix.POLLIN != 0
	}
}
