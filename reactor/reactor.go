// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral reactor factory.

package reactor

import (
	"fmt"

	"github.com/momentics/hioload-handoff/api"
)

// Backend names accepted by ForBackend.
const (
	BackendAuto  = "auto"
	BackendEpoll = "epoll"
	BackendWatch = "watch"
)

// New constructs the platform's preferred reactor.
func New() (api.Reactor, error) {
	return newDefault()
}

// ForBackend resolves a configured backend name to a reactor.
func ForBackend(name string) (api.Reactor, error) {
	switch name {
	case "", BackendAuto:
		return newDefault()
	case BackendEpoll:
		return newEpoll()
	case BackendWatch:
		return NewWatch(), nil
	default:
		return nil, fmt.Errorf("reactor: %q: %w", name, api.ErrUnknownBackend)
	}
}

// SignalFactory returns the signal constructor matching a backend name, for
// components that must create signals before any reactor exists.
func SignalFactory(name string) (api.SignalFactory, error) {
	switch name {
	case "", BackendAuto:
		return defaultSignalFactory, nil
	case BackendEpoll:
		return epollSignalFactory()
	case BackendWatch:
		return watchSignalFactory, nil
	default:
		return nil, fmt.Errorf("reactor: %q: %w", name, api.ErrUnknownBackend)
	}
}
