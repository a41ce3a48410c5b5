// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	GlobalLogger = NewLogger(os.Stderr, "info")
}

// NewLogger builds a JSON logger writing to w at the named level.
func NewLogger(w io.Writer, level string) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return &Logger{Logger: slog.New(handler)}
}

// SetGlobalLogger replaces the process-wide logger.
func SetGlobalLogger(l *Logger) {
	if l != nil {
		GlobalLogger = l
	}
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
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

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// Context keys for logging
const (
	CorrelationID LogContextKey = "correlation_id"
)

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationID).(string); ok {
		return id
	}
	return ""
}

// ClientLogger provides structured logging for outbound API calls.
type ClientLogger struct {
	logger *Logger
}

// NewClientLogger creates a ClientLogger on the global logger.
func NewClientLogger() *ClientLogger {
	return &ClientLogger{logger: GlobalLogger}
}

// LogRequest logs the completion of one HTTP attempt.
func (l *ClientLogger) LogRequest(ctx context.Context, method, path string, status int, elapsed time.Duration, attempt int) {
	l.logger.DebugContext(ctx, "api request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Duration("elapsed", elapsed),
		slog.Int("attempt", attempt),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogRetry logs a timed-out attempt that is about to be retried.
func (l *ClientLogger) LogRetry(ctx context.Context, method, path string, err error) {
	l.logger.WarnContext(ctx, "request timed out, retrying",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogError logs a failed request.
func (l *ClientLogger) LogError(ctx context.Context, method, path string, err error) {
	l.logger.ErrorContext(ctx, "api request failed",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// ServiceLogger logs service operations for one named service.
type ServiceLogger struct {
	service string
	logger  *Logger
}

// NewServiceLogger creates a ServiceLogger for the given service.
func NewServiceLogger(service string) *ServiceLogger {
	return &ServiceLogger{service: service, logger: GlobalLogger}
}

// LogCall logs a completed service method call.
func (l *ServiceLogger) LogCall(ctx context.Context, method string, fields map[string]interface{}) {
	attrs := []any{
		slog.String("service", l.service),
		slog.String("method", method),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "service call", attrs...)
}

// LogIgnored logs an error that is intentionally not returned to the caller.
func (l *ServiceLogger) LogIgnored(ctx context.Context, method string, err error) {
	l.logger.WarnContext(ctx, "service error ignored",
		slog.String("service", l.service),
		slog.String("method", method),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogAsyncOperationError logs an error in an asynchronous operation.
func LogAsyncOperationError(ctx context.Context, operation string, err error, fields map[string]interface{}) {
	attrs := []any{
		slog.String("operation", operation),
		slog.String("type", "async_error"),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	GlobalLogger.ErrorContext(ctx, "async operation failed", attrs...)
}
