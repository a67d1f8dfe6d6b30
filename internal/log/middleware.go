package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ContextKey string

const LoggerContextKey ContextKey = "logger"

// Middleware puts logger in the request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLogger(r.Context(), logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext returns the request logger, or one over slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// RequestIDMiddleware adds the request id to the context logger. It must run
// after the middleware that assigns the id.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context())
			if id := extractRequestID(r); id != "" {
				logger = logger.With(FieldRequestID, id)
			}
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), logger)))
		})
	}
}

// StructuredLogger writes the domain events of the ledger.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogTransactionChanged records a committed create, update or delete.
func (sl *StructuredLogger) LogTransactionChanged(ctx context.Context, op, id, kind string, amount int64, sector string) {
	fields := NewFields().
		WithTransaction(id, kind, amount, sector).
		WithOperation(op).
		WithComponent(ComponentLedger)

	sl.logger.Logger.InfoContext(ctx, "Transaction "+op+"d", fields.ToSlice()...)
}

// LogLogin records a PIN check outcome. The PIN itself is never logged.
func (sl *StructuredLogger) LogLogin(ctx context.Context, clientIP string, ok bool) {
	fields := NewFields().
		WithClientIP(clientIP).
		WithOperation(OpLogin).
		WithComponent(ComponentAuth)
	fields[FieldSuccess] = ok

	level := slog.LevelInfo
	if !ok {
		level = slog.LevelWarn
	}
	sl.logger.Logger.Log(ctx, level, "Login attempt", fields.ToSlice()...)
}

// LogMirror records one spreadsheet mirror run.
func (sl *StructuredLogger) LogMirror(ctx context.Context, rows int, durationMs int64, err error) {
	fields := NewFields().
		WithOperation(OpMirror).
		WithComponent(ComponentSheets).
		WithError(err)
	fields[FieldCount] = rows
	fields[FieldDuration] = durationMs

	if err != nil {
		sl.logger.Logger.ErrorContext(ctx, "Mirror failed", fields.ToSlice()...)
		return
	}
	sl.logger.Logger.InfoContext(ctx, "Mirror completed", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.Logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
