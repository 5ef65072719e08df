// Package logging builds the daemon's structured slog.Logger from
// config.Logging: JSON or text handler, writing to stdout, stderr, or
// a rotated file via lumberjack. Unlike an HTTP service's
// logger, nothing here deals with per-request IDs or middleware — the
// daemon has no inbound request path besides an optional Prometheus
// scrape, which needs no per-call tracing.
package logging

import (
	"io"
	"os"
	"strings"

	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/senzing-garage/redoer/internal/config"
)

// New builds a logger from cfg. AddSource is enabled only at debug
// level, matching the verbosity/cost tradeoff of a long-running daemon
// that otherwise logs at info rate.
func New(cfg config.Logging) *slog.Logger {
	level := ParseLevel(cfg.Level)
	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	writer := newWriter(cfg)

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(writer, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	}
	return slog.New(handler)
}

// ParseLevel maps a configured level name to its slog.Level, defaulting
// to info on anything unrecognized.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func newWriter(cfg config.Logging) io.Writer {
	switch strings.ToLower(cfg.Output) {
	case "file":
		if cfg.Filename == "" {
			return os.Stdout
		}
		return &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
	case "stderr":
		return os.Stderr
	default:
		return os.Stdout
	}
}
