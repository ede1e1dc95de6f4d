// Package debug provides leveled structured logging using log/slog
package debug

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	rtdebug "runtime/debug"
	"strings"
)

// Config holds logger configuration
type Config struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
	// Format is text or json. Defaults to text.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
}

// Logger wraps slog.Logger. It satisfies pool.Logger and adds stack
// traces to error logs through ErrorStack.
type Logger struct {
	*slog.Logger
}

// New creates a logger from cfg
func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return &Logger{Logger: slog.New(handler)}, nil
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	// Set to a level higher than any actual level
	opts := &slog.HandlerOptions{Level: slog.LevelError + 1}
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, opts))}
}

// With returns a logger with the given attributes
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// ErrorStack logs an error message with the error and the current stack
func (l *Logger) ErrorStack(msg string, err error, args ...any) {
	args = append(args, "error", err, "stack", string(rtdebug.Stack()))
	l.Logger.Error(msg, args...)
}

// ParseLevel converts a level name to a slog.Level
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
