// Package logging builds the structured loggers used across the tool.
//
// Text output is bracketed:
// [LEVEL] [system] [HH:MM:SS] message key=value
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
)

// Options selects level ("debug", "info", "warn", "error") and format
// ("text" or "json").
type Options struct {
	Level  string
	Format string
}

// NewLogger creates a logger writing to stderr.
func NewLogger(opts Options) *slog.Logger {
	return newLogger(os.Stderr, opts)
}

// NewLoggerWithSystem scopes a logger to a subsystem ("ingest", "engine", "store").
func NewLoggerWithSystem(opts Options, system string) *slog.Logger {
	return NewLogger(opts).With("system", system)
}

func newLogger(w io.Writer, opts Options) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	if strings.EqualFold(opts.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(NewBracketHandler(w, hopts))
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewProgress returns a progress bar over n steps. It draws nothing unless
// verbose.
func NewProgress(n int, description string, verbose bool) *progressbar.ProgressBar {
	if !verbose {
		return progressbar.NewOptions(n, progressbar.OptionSetWriter(io.Discard))
	}
	return progressbar.Default(int64(n), description)
}
