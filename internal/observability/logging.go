// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// SetLogger replaces the logger used by the helpers in this package, so
// they share the request-aware handler configured by the middleware package.
func SetLogger(l *slog.Logger) {
	if l != nil {
		GlobalLogger = &Logger{Logger: l}
	}
}

// ClientLogger provides structured logging for calls to a third-party API.
type ClientLogger struct {
	provider string
	logger   *Logger
}

// NewClientLogger creates a ClientLogger for the named provider.
func NewClientLogger(provider string) *ClientLogger {
	return &ClientLogger{provider: provider}
}

func (l *ClientLogger) log() *Logger {
	if l.logger != nil {
		return l.logger
	}
	return GlobalLogger
}

// LogCall records a finished outbound call and its metrics, and returns err unchanged.
func (l *ClientLogger) LogCall(ctx context.Context, operation string, start time.Time, err error, attrs ...any) error {
	ObserveOutbound(l.provider, operation, start, err)

	fields := append([]any{
		slog.String("provider", l.provider),
		slog.String("operation", operation),
		slog.Duration("elapsed", time.Since(start)),
	}, attrs...)
	if err != nil {
		fields = append(fields, slog.String("error", err.Error()))
		l.log().WarnContext(ctx, "outbound call failed", fields...)
		return err
	}
	l.log().DebugContext(ctx, "outbound call", fields...)
	return nil
}
