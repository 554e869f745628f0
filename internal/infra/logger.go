package infra

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a config level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// NewLogger builds the process logger from config, writing to stderr so
// stdout stays free for command output.
func NewLogger(cfg *Config) *slog.Logger {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	level, err := ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(cfg.Logging.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With(slog.String("app", cfg.App.Name), slog.String("cluster", cfg.Cluster))
}
