// File: queue/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package queue

import (
	"log/slog"

	"github.com/momentics/hioload-handoff/api"
	"github.com/momentics/hioload-handoff/internal/semaphore"
)

type options struct {
	name       string
	logger     *slog.Logger
	signals    api.SignalFactory
	pumpBudget int
}

// Option configures a Queue at construction.
type Option func(*options)

func defaultOptions() options {
	return options{
		name:    "queue",
		logger:  slog.Default(),
		signals: semaphore.New,
	}
}

// WithName labels the queue in logs, probes and fault reports.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSignalFactory selects how readiness signals are built. The signals must
// be pollable by the reactors of the loops the queue will be registered on;
// use the loop reactor's NewSignal or reactor.SignalFactory.
func WithSignalFactory(f api.SignalFactory) Option {
	return func(o *options) {
		if f != nil {
			o.signals = f
		}
	}
}

// WithPumpBudget caps the callbacks a single wakeup may run; 0 means drain
// every available unit. Units left over fire again on the next loop turn.
func WithPumpBudget(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.pumpBudget = n
		}
	}
}
