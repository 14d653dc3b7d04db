// control/logging.go
// Author: momentics <momentics@gmail.com>
//
// Shared structured logger. The level lives in a LevelVar so a config reload
// can change it without rebuilding loggers handed out earlier.

package control

import (
	"io"
	"log/slog"
	"os"
)

var (
	logLevel      = new(slog.LevelVar)
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
)

// Logger returns the package logger.
func Logger() *slog.Logger {
	return defaultLogger
}

// SetLogger replaces the package logger.
func SetLogger(l *slog.Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// NewLogger builds a text logger on w whose level follows SetLogLevel.
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// SetLogLevel applies a level name such as "debug" or "warn".
func SetLogLevel(name string) error {
	l, err := ParseLevel(name)
	if err != nil {
		return err
	}
	logLevel.Set(l)
	return nil
}

// LogLevel reports the current level.
func LogLevel() slog.Level {
	return logLevel.Level()
}
