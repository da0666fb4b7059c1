// Package logging installs the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pjscruggs/slogcp"
)

// Init creates and sets the default slog logger writing to w.
// "text" uses slog's TextHandler; "json" uses the slogcp handler, which emits
// Cloud Logging structured JSON. The returned func releases handler resources.
func Init(w io.Writer, format string, level slog.Level) (func() error, error) {
	switch strings.ToLower(format) {
	case "", "text":
		slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
		return func() error { return nil }, nil
	case "json":
		h, err := slogcp.NewHandler(w, slogcp.WithLevel(level))
		if err != nil {
			return nil, fmt.Errorf("failed to create JSON log handler: %w", err)
		}
		slog.SetDefault(slog.New(h))
		return h.Close, nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to slog.Level.
// Unknown strings default to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
