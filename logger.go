package shapeseek

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with consistent field names for the operations
// this package performs.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. A nil handler means
// text logs to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that writes JSON logs to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// LogIngest logs one model ingestion.
func (l *Logger) LogIngest(ctx context.Context, id int64, name, format string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "ingest failed", "name", name, "format", format, "error", err)
		return
	}
	l.InfoContext(ctx, "model ingested", "id", id, "name", name, "format", format)
}

// LogSearch logs one similarity search.
func (l *Logger) LogSearch(ctx context.Context, k, found int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed", "k", k, "error", err)
		return
	}
	l.DebugContext(ctx, "search completed", "k", k, "results", found)
}

// LogRebuild logs an index rebuild.
func (l *Logger) LogRebuild(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "rebuild failed", "error", err)
		return
	}
	l.InfoContext(ctx, "index rebuilt", "count", count)
}

// LogFlush logs a snapshot flush.
func (l *Logger) LogFlush(ctx context.Context, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot flush failed", "path", path, "error", err)
		return
	}
	l.DebugContext(ctx, "snapshot flushed", "path", path)
}
