//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux defaults to epoll over eventfd signals.

package reactor

import (
	"github.com/momentics/hioload-handoff/api"
	"github.com/momentics/hioload-handoff/internal/semaphore"
)

var defaultSignalFactory api.SignalFactory = semaphore.New

func newDefault() (api.Reactor, error) {
	return newEpoll()
}

func newEpoll() (api.Reactor, error) {
	r, err := newEpollReactor()
	if err != nil {
		return nil, err
	}
	return r, nil
}

func epollSignalFactory() (api.SignalFactory, error) {
	return semaphore.New, nil
}
