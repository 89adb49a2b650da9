package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Config holds logger settings.
type Config struct {
	Level     string // debug, info, warn, error
	Format    string // json, console
	Output    string // stdout, stderr
	AddSource bool
}

// New builds a slog.Logger according to cfg. Console format uses tint for
// colored output; everything else falls back to JSON.
func New(cfg Config) *slog.Logger {
	var out io.Writer
	switch cfg.Output {
	case "stderr":
		out = os.Stderr
	default:
		out = os.Stdout
	}
	return NewWithWriter(cfg, out)
}

// NewWithWriter is New with an explicit destination, used by tests to
// capture output.
func NewWithWriter(cfg Config, out io.Writer) *slog.Logger {
	level := ParseLevel(cfg.Level)

	if cfg.Format == "console" {
		return slog.New(tint.NewHandler(out, &tint.Options{
			Level:      level,
			AddSource:  cfg.AddSource,
			TimeFormat: time.RFC3339,
		}))
	}

	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}))
}

// ParseLevel converts a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch level {
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
