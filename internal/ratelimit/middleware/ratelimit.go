// Package middleware enforces sliding window rate limits on HTTP routes.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"vouch/internal/ratelimit/models"
	"vouch/pkg/platform/circuit"
	"vouch/pkg/platform/httputil"
	"vouch/pkg/requestcontext"
)

// Store admits or rejects one request against a key.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

type Middleware struct {
	store    Store
	fallback Store
	breaker  *circuit.Breaker
	limits   map[models.Class]models.Limit
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns every limiter into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) { m.disabled = disabled }
}

// WithFallback routes checks to fallback while the breaker is open.
func WithFallback(fallback Store, breaker *circuit.Breaker) Option {
	return func(m *Middleware) {
		m.fallback = fallback
		m.breaker = breaker
	}
}

func New(store Store, limits map[models.Class]models.Limit, logger *slog.Logger, opts ...Option) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Middleware{store: store, limits: limits, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// ByIP limits requests per client address.
func (m *Middleware) ByIP(class models.Class) func(http.Handler) http.Handler {
	return m.limit(class, func(r *http.Request) (string, string) {
		return "ip", requestcontext.ClientIP(r.Context())
	})
}

// ByHolder limits requests per authenticated holder, falling back to the
// client address when no holder is on the request.
func (m *Middleware) ByHolder(class models.Class) func(http.Handler) http.Handler {
	return m.limit(class, func(r *http.Request) (string, string) {
		if holder := requestcontext.HolderID(r.Context()); holder != "" {
			return "holder", holder.String()
		}
		return "ip", requestcontext.ClientIP(r.Context())
	})
}

func (m *Middleware) limit(class models.Class, identify func(*http.Request) (string, string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limit, ok := m.limits[class]
		if m.disabled || !ok || limit.Requests <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			kind, identifier := identify(r)
			key := models.NewKey(class, kind, identifier)

			result, err := m.check(ctx, key, limit)
			if err != nil {
				// fail open; the limiter must not take writes down with it
				m.logger.ErrorContext(ctx, "rate limit check failed", "error", err, "class", class)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				m.logger.InfoContext(ctx, "rate limit exceeded", "class", class, "key_kind", kind, "retry_after", result.RetryAfter)
				writeRateLimitExceeded(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) check(ctx context.Context, key string, limit models.Limit) (*models.Result, error) {
	if m.breaker == nil || m.fallback == nil {
		return m.store.Allow(ctx, key, limit.Requests, limit.Window)
	}
	if !m.breaker.Allow() {
		return m.fallback.Allow(ctx, key, limit.Requests, limit.Window)
	}
	result, err := m.store.Allow(ctx, key, limit.Requests, limit.Window)
	if err != nil {
		if _, change := m.breaker.RecordFailure(); change.Opened {
			m.logger.WarnContext(ctx, "rate limit store unavailable, using in-memory fallback", "error", err)
		}
		return m.fallback.Allow(ctx, key, limit.Requests, limit.Window)
	}
	if _, change := m.breaker.RecordSuccess(); change.Closed {
		m.logger.InfoContext(ctx, "rate limit store recovered")
	}
	return result, nil
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
