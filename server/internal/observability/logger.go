// Package observability carries request-scoped logging and in-process request metrics.
package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	LogFieldRequestID = "request_id"
	LogFieldOwnerID   = "owner_id"
	LogFieldOperation = "operation"
	LogFieldDuration  = "duration_ms"
	LogFieldStatus    = "status"
	LogFieldErrorCode = "error_code"
)

// RequestContext identifies one API request in logs.
// OwnerID is filled in once authentication has run.
type RequestContext struct {
	RequestID string
	OwnerID   string
	Operation string
	StartTime time.Time

	base *slog.Logger
}

// NewRequestContext starts timing a request. An empty requestID gets a fresh UUID.
func NewRequestContext(logger *slog.Logger, requestID, operation string) *RequestContext {
	if logger == nil {
		logger = slog.Default()
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return &RequestContext{
		RequestID: requestID,
		Operation: operation,
		StartTime: time.Now(),
		base:      logger,
	}
}

// Logger returns a logger tagged with the request fields.
func (r *RequestContext) Logger() *slog.Logger {
	args := []any{
		slog.String(LogFieldRequestID, r.RequestID),
		slog.String(LogFieldOperation, r.Operation),
	}
	if r.OwnerID != "" {
		args = append(args, slog.String(LogFieldOwnerID, r.OwnerID))
	}
	return r.base.With(args...)
}

// Log writes one record at level with the request fields and the elapsed time.
func (r *RequestContext) Log(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	attrs = append(attrs, slog.Int64(LogFieldDuration, r.Duration().Milliseconds()))
	r.Logger().LogAttrs(ctx, level, msg, attrs...)
}

// Duration returns the elapsed time since the request started.
func (r *RequestContext) Duration() time.Duration {
	return time.Since(r.StartTime)
}

type ctxKey struct{}

// WithRequestContext adds the request context to the context.
func WithRequestContext(ctx context.Context, reqCtx *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, reqCtx)
}

// FromContext extracts the request context from the context.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	reqCtx, ok := ctx.Value(ctxKey{}).(*RequestContext)
	return reqCtx, ok
}

// LoggerFromContext returns the request logger, or slog.Default outside a request.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if rc, ok := FromContext(ctx); ok {
		return rc.Logger()
	}
	return slog.Default()
}
