// Package observability provides structured logging construction and
// Prometheus metrics for the pipeline tooling.
package observability

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Log output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrUnknownLogFormat is returned for an unrecognized logging format.
var ErrUnknownLogFormat = errors.New("unknown log format")

// LoggerConfig controls handler construction.
type LoggerConfig struct {
	// Level is one of debug, info, warn, error.
	Level string

	// Format is FormatText or FormatJSON.
	Format string

	// Output receives log records; defaults to os.Stderr when nil.
	Output io.Writer
}

// NewLogger builds an slog.Logger from the config.
func NewLogger(cfg LoggerConfig) (*slog.Logger, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler

	switch strings.ToLower(cfg.Format) {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, opts)
	case FormatText, "":
		handler = slog.NewTextHandler(out, opts)
	default:
		return nil, ErrUnknownLogFormat
	}

	return slog.New(handler), nil
}

// parseLevel maps a level name to an slog.Level, defaulting to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
