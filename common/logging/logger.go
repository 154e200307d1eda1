// Package logging is the structured logger shared by the evidencias service
// and evctl. Records are JSON on stdout unless logging.format says text, and
// every record written with a request context carries its X-Request-ID so a
// webhook delivery or dashboard call can be followed across ingest, store and
// event publishing.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/transvepo/evidencias-stack/common/middleware"
)

// Logger is a slog.Logger whose *Context methods stamp the request ID.
type Logger struct {
	*slog.Logger
}

// New builds the service logger on stdout from logging.level and
// logging.format.
func New(level slog.Level, format string) *Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter is New with an explicit sink. Source positions are only
// recorded at debug level.
func NewWithWriter(w io.Writer, level slog.Level, format string) *Logger {
	opts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}

	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Default wraps slog.Default, which main replaces through SetDefault.
func Default() *Logger {
	return &Logger{Logger: slog.Default()}
}

// Discard drops every record.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithContext returns the underlying logger with request_id set when the
// request went through middleware.RequestID.
func (l *Logger) WithContext(ctx context.Context) *slog.Logger {
	reqID := middleware.GetRequestID(ctx)
	if reqID == "" {
		return l.Logger
	}
	return l.Logger.With(slog.String(FieldRequestID, reqID))
}

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).DebugContext(ctx, msg, args...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).InfoContext(ctx, msg, args...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).WarnContext(ctx, msg, args...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).ErrorContext(ctx, msg, args...)
}

// With adds attributes such as logging.Service("evidencias") to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// ParseLevel maps logging.level to a slog level; anything unrecognised is info.
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

// SetDefault installs l as the process-wide slog default.
func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}
