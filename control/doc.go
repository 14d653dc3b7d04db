// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, runtime metrics, debug probes and hot-reload for a
// hioload-handoff host.
//
// Provides:
//   - typed Config loaded from JSON, with defaults and validation
//   - a dynamic ConfigStore with reload listeners
//   - a MetricsRegistry and named DebugProbes
//   - the shared slog logger whose level follows the config
package control
