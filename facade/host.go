// File: facade/host.go
// Unified facade layer for hioload-handoff.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Host builds event loops and handoff queues from one control.Config and
// owns their lifecycle. Reactor backend, signal flavour, batch sizes, pump
// budget and CPU pinning all come from the config, so loops and queues built
// by the same host always agree on the readiness signal kind. Loop and queue
// stats are exposed through the Control interface as debug probes.

package facade

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/momentics/hioload-handoff/adapters"
	"github.com/momentics/hioload-handoff/api"
	"github.com/momentics/hioload-handoff/control"
	"github.com/momentics/hioload-handoff/internal/concurrency"
	"github.com/momentics/hioload-handoff/queue"
	"github.com/momentics/hioload-handoff/reactor"
)

// Host is the main facade type.
// It implements api.GracefulShutdown to allow unified shutdown logic.
type Host struct {
	config  *control.Config // immutable after New
	log     *slog.Logger
	control *adapters.ControlAdapter
	signals api.SignalFactory

	mu      sync.Mutex // protects loops, byName and started
	loops   []*concurrency.EventLoop
	byName  map[string]*concurrency.EventLoop
	started bool
}

// Ensure compliance with api.GracefulShutdown.
var _ api.GracefulShutdown = (*Host)(nil)

// New validates cfg and prepares a host. A nil cfg selects DefaultConfig.
func New(cfg *control.Config) (*Host, error) {
	if cfg == nil {
		cfg = control.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	signals, err := reactor.SignalFactory(cfg.Backend)
	if err != nil {
		return nil, fmt.Errorf("facade: %w", err)
	}
	if err := control.SetLogLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	h := &Host{
		config:  cfg,
		log:     control.Logger().With("component", "handoff"),
		control: adapters.NewControlAdapter(),
		signals: signals,
		byName:  make(map[string]*concurrency.EventLoop),
	}

	// Expose configuration values via Control for observability and hot-reload.
	h.control.SetConfig(cfg.Map())
	h.control.OnReload(h.applyReload)
	return h, nil
}

// Config returns the configuration the host was built with.
func (h *Host) Config() *control.Config {
	return h.config
}

// GetControl returns the Control interface for dynamic config and metrics.
func (h *Host) GetControl() api.Control {
	return h.control
}

// GetDebugAPI returns the probe registry view.
func (h *Host) GetDebugAPI() api.Debug {
	return h.control
}

// Logger returns the host logger.
func (h *Host) Logger() *slog.Logger {
	return h.log
}

// NewLoop builds a named loop. The n-th loop created is pinned to
// Config.CPUAffinity[n] when LockOSThread is set. Loops created after Start
// start immediately.
func (h *Host) NewLoop(name string) (*concurrency.EventLoop, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, dup := h.byName[name]; dup {
		return nil, fmt.Errorf("facade: loop %q: %w", name, api.ErrInvalidArgument)
	}
	r, err := reactor.ForBackend(h.config.Backend)
	if err != nil {
		return nil, fmt.Errorf("facade: loop %q: %w", name, err)
	}
	loop, err := concurrency.NewEventLoop(concurrency.LoopConfig{
		Name:         name,
		BatchSize:    h.config.LoopBatchSize,
		PollTimeout:  time.Duration(h.config.PollTimeout),
		LockOSThread: h.config.LockOSThread,
		CPU:          h.config.CPUFor(len(h.loops)),
		Reactor:      r,
		Logger:       h.log,
	})
	if err != nil {
		return nil, err
	}
	h.loops = append(h.loops, loop)
	h.byName[name] = loop
	if h.config.EnableDebug {
		adapters.RegisterLoop(h.control, loop)
	}
	if h.started {
		loop.Start()
	}
	return loop, nil
}

// Loop returns a loop created by NewLoop.
func (h *Host) Loop(name string) (*concurrency.EventLoop, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.byName[name]
	return l, ok
}

// NewQueue builds a queue whose signals match the host's loops. capacity <= 0
// selects Config.QueueCapacity.
func NewQueue[T any](h *Host, name string, capacity int) (*queue.Queue[T], error) {
	if capacity <= 0 {
		capacity = h.config.QueueCapacity
	}
	q, err := queue.New[T](capacity,
		queue.WithName(name),
		queue.WithLogger(h.log),
		queue.WithSignalFactory(h.signals),
		queue.WithPumpBudget(h.config.PumpBudget),
	)
	if err != nil {
		return nil, err
	}
	if h.config.EnableDebug {
		adapters.RegisterQueue(h.control, q, h.config.EnableMetrics)
	}
	return q, nil
}

// CloseQueue drops the queue's probe and closes it. Both directions must be
// unregistered.
func CloseQueue[T any](h *Host, q *queue.Queue[T]) error {
	h.control.UnregisterDebugProbe(adapters.QueueProbeName(q.Name()))
	return q.Close()
}

// Start runs every loop on its own goroutine. Subsequent calls have no effect.
func (h *Host) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return nil
	}
	for _, l := range h.loops {
		l.Start()
	}
	if h.config.EnableMetrics {
		h.control.SetConfig(map[string]any{"metrics.enabled": true})
	}
	h.started = true
	h.log.Info("host started", "loops", len(h.loops), "backend", h.config.Backend)
	return nil
}

// Stop stops every loop in reverse creation order and drops their probes.
// Stop on a host that never started still releases the loops' reactors.
func (h *Host) Stop() error {
	h.mu.Lock()
	loops := h.loops
	h.loops = nil
	h.byName = make(map[string]*concurrency.EventLoop)
	h.started = false
	h.mu.Unlock()

	for i := len(loops) - 1; i >= 0; i-- {
		loops[i].Stop()
		h.control.UnregisterDebugProbe(adapters.LoopProbeName(loops[i].Name()))
	}
	if len(loops) > 0 {
		h.log.Info("host stopped", "loops", len(loops))
	}
	return nil
}

// Shutdown implements api.GracefulShutdown by delegating to Stop().
func (h *Host) Shutdown() error {
	return h.Stop()
}

// Reload re-reads a config file and applies its reloadable keys through the
// host's own reload listener. Only log_level changes take effect on a
// running host.
func (h *Host) Reload(path string) error {
	cfg, err := control.LoadConfig(path)
	if err != nil {
		return err
	}
	h.control.SetConfig(map[string]any{"log_level": cfg.LogLevel})
	return nil
}

func (h *Host) applyReload() {
	v, ok := h.control.GetConfig()["log_level"]
	if !ok {
		return
	}
	name, _ := v.(string)
	if err := control.SetLogLevel(name); err != nil {
		h.log.Warn("log level not applied", "level", v, "err", err)
	}
}
