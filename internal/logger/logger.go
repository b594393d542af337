package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

type attrsKey struct{}

// Initialize sets up the global logger with the specified level and format
func Initialize(level, format string) {
	InitializeWithWriter(os.Stdout, level, format)
}

// InitializeWithWriter is Initialize with an explicit destination.
func InitializeWithWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	current.Store(l)
	slog.SetDefault(l)
}

// ParseLevel maps a config level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Get returns the default logger
func Get() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	Initialize("info", "text")
	return current.Load()
}

// ContextWith returns a copy of ctx carrying extra log attributes. The
// ...Context functions add them to every record.
func ContextWith(ctx context.Context, args ...any) context.Context {
	prev, _ := ctx.Value(attrsKey{}).([]any)
	merged := make([]any, 0, len(prev)+len(args))
	merged = append(merged, prev...)
	merged = append(merged, args...)
	return context.WithValue(ctx, attrsKey{}, merged)
}

// FromContext returns the default logger with the attributes stored in ctx.
func FromContext(ctx context.Context) *slog.Logger {
	if attrs, ok := ctx.Value(attrsKey{}).([]any); ok && len(attrs) > 0 {
		return Get().With(attrs...)
	}
	return Get()
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }
func Info(msg string, args ...any)  { Get().Info(msg, args...) }
func Warn(msg string, args ...any)  { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }

func DebugContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).DebugContext(ctx, msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).InfoContext(ctx, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).WarnContext(ctx, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).ErrorContext(ctx, msg, args...)
}

// WithRental returns a logger with the rental id attached
func WithRental(rentalID string) *slog.Logger {
	return Get().With("rental_id", rentalID)
}

// WithJob returns a logger with the scheduled job name attached
func WithJob(jobName string) *slog.Logger {
	return Get().With("job", jobName)
}

// expectedError is implemented by errors that describe a rejected request
// rather than a failure of the system.
type expectedError interface {
	Expected() bool
}

func isExpected(err error) bool {
	var e expectedError
	return errors.As(err, &e) && e.Expected()
}

// errorLevel is warn for rejected requests and error for everything else.
func errorLevel(err error) slog.Level {
	if isExpected(err) {
		return slog.LevelWarn
	}
	return slog.LevelError
}

func track(level slog.Level, msg string, base []any, args []any) {
	Get().Log(context.Background(), level, msg, append(base, args...)...)
}

// EnterMethod logs method entry (process tracking)
func EnterMethod(methodName string, args ...any) {
	track(slog.LevelDebug, "→ Method entered", []any{"method", methodName, "event", "enter"}, args)
}

// ExitMethod logs method exit (process tracking)
func ExitMethod(methodName string, args ...any) {
	track(slog.LevelDebug, "← Method exited", []any{"method", methodName, "event", "exit"}, args)
}

// ExitMethodWithError logs method exit with error. Rejected requests are
// logged at warn level.
func ExitMethodWithError(methodName string, err error, args ...any) {
	track(errorLevel(err), "← Method exited with error", []any{"method", methodName, "event", "exit", "error", err}, args)
}

// DatabaseCall logs a database operation before it runs.
func DatabaseCall(operation, table string, args ...any) {
	track(slog.LevelDebug, "→ Database call", []any{"operation", operation, "table", table}, args)
}

// DatabaseResult logs a database operation result. Not-found and conflict
// outcomes surface as expected errors and are logged at warn level.
func DatabaseResult(operation string, rowsAffected int64, err error, args ...any) {
	base := []any{"operation", operation, "rows_affected", rowsAffected}
	if err != nil {
		track(errorLevel(err), "← Database call failed", append(base, "error", err), args)
		return
	}
	track(slog.LevelDebug, "← Database call succeeded", base, args)
}

// ExternalServiceCall logs a call to SendGrid, Redis or RabbitMQ.
func ExternalServiceCall(service, operation string, args ...any) {
	track(slog.LevelDebug, "→ External service call", []any{"service", service, "operation", operation}, args)
}

// ExternalServiceResult logs the outcome of an external service call.
func ExternalServiceResult(service, operation string, err error, args ...any) {
	base := []any{"service", service, "operation", operation}
	if err != nil {
		track(slog.LevelError, "← External service call failed", append(base, "error", err), args)
		return
	}
	track(slog.LevelDebug, "← External service call succeeded", base, args)
}
