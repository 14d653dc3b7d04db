//go:build !linux
// +build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Platforms without epoll run the watch reactor.

package reactor

import (
	"fmt"

	"github.com/momentics/hioload-handoff/api"
	"github.com/momentics/hioload-handoff/internal/semaphore"
)

var defaultSignalFactory api.SignalFactory = semaphore.New

func newDefault() (api.Reactor, error) {
	return NewWatch(), nil
}

func newEpoll() (api.Reactor, error) {
	return nil, fmt.Errorf("reactor: epoll: %w", api.ErrNotSupported)
}

func epollSignalFactory() (api.SignalFactory, error) {
	return nil, fmt.Errorf("reactor: epoll: %w", api.ErrNotSupported)
}
