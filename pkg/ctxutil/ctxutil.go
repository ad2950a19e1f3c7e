// Package ctxutil carries request-scoped values through context.Context.
package ctxutil

import (
	"context"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Detach returns a context that keeps ctx's values (request id) but is never
// cancelled with it. Work that must outlive an abandoned caller runs on it.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
