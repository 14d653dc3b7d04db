//go:build linux
// +build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor - Linux epoll implementation.

package reactor

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-handoff/api"
	"github.com/momentics/hioload-handoff/internal/semaphore"
)

const maxEpollEvents = 128

var _ api.Reactor = (*epollReactor)(nil)

// epollEntry binds a registered descriptor to its callback.
type epollEntry struct {
	reg api.Registration
	fd  int
	cb  func()
}

// epollReactor implements api.Reactor using level-triggered Linux epoll.
type epollReactor struct {
	epfd   int // epoll file descriptor
	mu     sync.Mutex
	next   api.Registration
	byReg  map[api.Registration]*epollEntry
	byFd   map[int]*epollEntry
	events [maxEpollEvents]unix.EpollEvent // owned by the polling goroutine
	closed bool
}

// newEpollReactor creates a new instance of epollReactor.
func newEpollReactor() (*epollReactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &epollReactor{
		epfd:  epfd,
		byReg: make(map[api.Registration]*epollEntry),
		byFd:  make(map[int]*epollEntry),
	}, nil
}

// Register adds an eventfd-backed pollable to the epoll watch list.
func (r *epollReactor) Register(p api.Pollable, cb func()) (api.Registration, error) {
	fp, ok := p.(api.FdPollable)
	if !ok {
		return 0, fmt.Errorf("epoll register %T: %w", p, api.ErrBackendMismatch)
	}
	fd := int(fp.Fd())

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, api.ErrReactorClosed
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return 0, fmt.Errorf("epoll ctl add: %w", err)
	}
	r.next++
	e := &epollEntry{reg: r.next, fd: fd, cb: cb}
	r.byReg[e.reg] = e
	r.byFd[fd] = e
	return e.reg, nil
}

// Unregister removes a descriptor from the epoll watch list.
func (r *epollReactor) Unregister(reg api.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byReg[reg]
	if !ok {
		return fmt.Errorf("epoll unregister %d: %w", reg, api.ErrNotFound)
	}
	delete(r.byReg, reg)
	delete(r.byFd, e.fd)
	if r.closed {
		return nil
	}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, e.fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del: %w", err)
	}
	return nil
}

// Poll blocks and waits for events on registered descriptors.
// A negative timeout blocks indefinitely.
func (r *epollReactor) Poll(timeout time.Duration) (int, error) {
	n, err := unix.EpollWait(r.epfd, r.events[:], toMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			return 0, nil // interrupted by signal, normal
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}

	dispatched := 0
	for i := 0; i < n; i++ {
		fd := int(r.events[i].Fd)
		// Look up at dispatch time: an earlier callback in this batch may
		// have unregistered the source.
		r.mu.Lock()
		e, ok := r.byFd[fd]
		r.mu.Unlock()
		if !ok {
			continue
		}
		e.cb()
		dispatched++
	}
	return dispatched, nil
}

// NewSignal creates an eventfd signal that this reactor can watch.
func (r *epollReactor) NewSignal(initial uint64) (api.ReadinessSignal, error) {
	e, err := semaphore.NewEventFD(initial)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Close releases the epoll file descriptor.
func (r *epollReactor) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	clear(r.byReg)
	clear(r.byFd)
	return unix.Close(r.epfd)
}

// toMillis rounds a positive timeout up so short waits never become busy polls.
func toMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := (d + time.Millisecond - 1) / time.Millisecond
	if ms > 1<<31-1 {
		return 1<<31 - 1
	}
	return int(ms)
}
