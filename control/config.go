// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Typed host configuration. Values are fixed per run except LogLevel, which
// the host re-reads from the ConfigStore on reload.

package control

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/sugawarayuuta/sonnet"

	"github.com/momentics/hioload-handoff/api"
)

// Config holds the parameters used to build loops and queues.
type Config struct {
	QueueCapacity int      `json:"queue_capacity"`  // default capacity for facade-built queues
	LoopBatchSize int      `json:"loop_batch_size"` // posted tasks run per loop wakeup
	PollTimeout   Duration `json:"poll_timeout"`    // upper bound of one reactor poll; negative blocks
	PumpBudget    int      `json:"pump_budget"`     // callbacks per pump wakeup, 0 = unlimited
	Backend       string   `json:"backend"`         // auto, epoll or watch
	LockOSThread  bool     `json:"lock_os_thread"`
	CPUAffinity   []int    `json:"cpu_affinity"` // CPU per loop index; -1 or missing = unpinned
	EnableMetrics bool     `json:"enable_metrics"`
	EnableDebug   bool     `json:"enable_debug"`
	LogLevel      string   `json:"log_level"` // debug, info, warn, error
}

// DefaultConfig returns defaults suitable for a handful of loops.
func DefaultConfig() *Config {
	return &Config{
		QueueCapacity: 1024,
		LoopBatchSize: 64,
		PollTimeout:   Duration(-1),
		PumpBudget:    0,
		Backend:       "auto",
		EnableMetrics: true,
		EnableDebug:   true,
		LogLevel:      "info",
	}
}

// ParseConfig decodes JSON over the defaults and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := sonnet.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("control: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a JSON config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("control: load config: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch {
	case c.QueueCapacity < 1:
		return invalid("queue_capacity", c.QueueCapacity)
	case c.LoopBatchSize < 1:
		return invalid("loop_batch_size", c.LoopBatchSize)
	case c.PumpBudget < 0:
		return invalid("pump_budget", c.PumpBudget)
	}
	switch c.Backend {
	case "", "auto", "epoll", "watch":
	default:
		return fmt.Errorf("control: backend %q: %w", c.Backend, api.ErrUnknownBackend)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// CPUFor returns the CPU configured for loop index i, or -1.
func (c *Config) CPUFor(i int) int {
	if i < 0 || i >= len(c.CPUAffinity) {
		return -1
	}
	return c.CPUAffinity[i]
}

// Map flattens the config for the ConfigStore.
func (c *Config) Map() map[string]any {
	return map[string]any{
		"queue_capacity":  c.QueueCapacity,
		"loop_batch_size": c.LoopBatchSize,
		"poll_timeout":    time.Duration(c.PollTimeout).String(),
		"pump_budget":     c.PumpBudget,
		"backend":         c.Backend,
		"lock_os_thread":  c.LockOSThread,
		"cpu_affinity":    append([]int(nil), c.CPUAffinity...),
		"enable_metrics":  c.EnableMetrics,
		"enable_debug":    c.EnableDebug,
		"log_level":       c.LogLevel,
	}
}

func invalid(field string, v any) error {
	return fmt.Errorf("control: %s = %v: %w", field, v, api.ErrInvalidArgument)
}

// ParseLevel maps a config level name to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("control: log_level %q: %w", s, api.ErrInvalidArgument)
	}
	return l, nil
}

// Duration is a time.Duration that decodes from "250ms" style strings or
// integer nanoseconds.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("duration %s: %w", b, err)
	}
	*d = Duration(n)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(time.Duration(d).String())), nil
}
