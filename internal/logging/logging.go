// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ParseLevel maps a level name to a slog level. Besides slog's own names it
// accepts WARNING and CRITICAL, the spellings used in existing config files.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "DEBUG", "NOTSET":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "ERROR", "CRITICAL", "FATAL":
		return slog.LevelError, nil
	}
	return slog.LevelWarn, fmt.Errorf("unknown log level %q", name)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds a logger at the named level and installs it as the default.
// With a file, records are appended there as JSON, creating parent
// directories as needed; otherwise they go to stderr as text. The returned
// Closer releases the file.
func Setup(level, file string) (*slog.Logger, io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var (
		handler slog.Handler
		closer  io.Closer = nopCloser{}
	)
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		handler = slog.NewJSONHandler(f, opts)
		closer = f
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closer, nil
}
