// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services read them. Keeping the package free of
// net/http lets the domain layer depend on it without pulling in transport code.
//
// Usage in services (read values):
//
//	holder := requestcontext.HolderID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "vouch/pkg/domain"
)

type (
	holderIDKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	clientIPKey    struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyHolderID    = holderIDKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
	ContextKeyClientIP    = clientIPKey{}
)

// HolderID retrieves the authenticated holder from the context.
// Returns the zero value if the request is unauthenticated.
func HolderID(ctx context.Context) id.HolderID {
	if h, ok := ctx.Value(ContextKeyHolderID).(id.HolderID); ok {
		return h
	}
	return ""
}

// WithHolderID injects the authenticated holder into the context.
func WithHolderID(ctx context.Context, holder id.HolderID) context.Context {
	return context.WithValue(ctx, ContextKeyHolderID, holder)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// WithClientIP injects the client IP address into the context.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ContextKeyClientIP, ip)
}

// Now retrieves the request-scoped time from context, truncated to seconds.
// Falls back to time.Now() if not set (workers, seed loaders, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t.UTC().Truncate(time.Second)
	}
	return time.Now().UTC().Truncate(time.Second)
}

// WithTime injects a specific time into a context so one request observes a
// single clock reading across every module it touches.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
