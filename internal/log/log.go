// Package log provides categorized structured logging for padkit.
// Output goes to a file (or any writer) so it never corrupts the TUI;
// logging is disabled until Init is called.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Category tags each log line with the subsystem that produced it.
type Category string

const (
	CatConfig Category = "config"
	CatInput  Category = "input"
	CatAudio  Category = "audio"
	CatEngine Category = "engine"
	CatTUI    Category = "tui"
)

var (
	mu     sync.RWMutex
	logger *slog.Logger
	closer io.Closer
)

// Init routes log output to the given file path, creating parent
// directories as needed. Level is one of "debug", "info", "warn", "error".
func Init(path, level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		_ = closer.Close()
	}
	logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl}))
	closer = f
	return nil
}

// InitWriter routes log output to an arbitrary writer. Used by tests and
// by non-TUI runs that log to stderr.
func InitWriter(w io.Writer, level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	closer = nil
	return nil
}

// Close flushes and closes the log sink. Safe to call without Init.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		_ = closer.Close()
		closer = nil
	}
	logger = nil
}

func parseLevel(level string) (slog.Level, error) {
	switch level {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}

func emit(lvl slog.Level, cat Category, msg string, args ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l == nil {
		return
	}
	l.Log(context.Background(), lvl, msg, append([]any{"cat", string(cat)}, args...)...)
}

// Debug logs a debug-level message for the given category.
func Debug(cat Category, msg string, args ...any) { emit(slog.LevelDebug, cat, msg, args...) }

// Info logs an info-level message for the given category.
func Info(cat Category, msg string, args ...any) { emit(slog.LevelInfo, cat, msg, args...) }

// Warn logs a warn-level message for the given category.
func Warn(cat Category, msg string, args ...any) { emit(slog.LevelWarn, cat, msg, args...) }

// Error logs an error-level message for the given category.
func Error(cat Category, msg string, args ...any) { emit(slog.LevelError, cat, msg, args...) }

// ErrorErr logs an error-level message with the error attached.
func ErrorErr(cat Category, msg string, err error, args ...any) {
	emit(slog.LevelError, cat, msg, append([]any{"err", err}, args...)...)
}
