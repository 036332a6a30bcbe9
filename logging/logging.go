// Package logging constructs the slog loggers shared by agenttap binaries.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New returns a component-tagged text logger writing to stderr.
func New(component string, level slog.Level) *slog.Logger {
	return NewWriter(os.Stderr, component, level)
}

// NewWriter returns a component-tagged text logger writing to w.
func NewWriter(w io.Writer, component string, level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("component", component)
}

// Level maps a verbose flag to the log level binaries use.
func Level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
