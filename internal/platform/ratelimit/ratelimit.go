// Package ratelimit throttles authentication endpoints with a fixed window
// counter in Redis. Limits are per client IP and per endpoint class. The
// limiter fails open: a Redis outage must never lock users out of sign-in.
package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"bronn/internal/platform/metrics"
	mw "bronn/internal/platform/middleware"
	platformredis "bronn/internal/platform/redis"
	audit "bronn/pkg/platform/audit"
)

// EndpointClass groups endpoints that share a limit.
type EndpointClass string

const (
	ClassFederation EndpointClass = "federation"
	ClassNativeAuth EndpointClass = "native_auth"
)

// Limit is requests per window for one class.
type Limit struct {
	Requests int
	Window   time.Duration
}

// DefaultLimits mirror what the engine's own gateway applies upstream so
// the bridge is never the looser of the two.
var DefaultLimits = map[EndpointClass]Limit{
	ClassFederation: {Requests: 60, Window: time.Minute},
	ClassNativeAuth: {Requests: 10, Window: time.Minute},
}

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Limiter struct {
	redis    *platformredis.Client
	limits   map[EndpointClass]Limit
	metrics  *metrics.Metrics
	recorder *audit.Recorder
	logger   *slog.Logger
	disabled bool
}

type Option func(*Limiter)

// WithDisabled turns the limiter into a pass-through (tests, local dev).
func WithDisabled(disabled bool) Option {
	return func(l *Limiter) { l.disabled = disabled }
}

func WithLimits(limits map[EndpointClass]Limit) Option {
	return func(l *Limiter) { l.limits = limits }
}

func New(redis *platformredis.Client, m *metrics.Metrics, recorder *audit.Recorder, logger *slog.Logger, opts ...Option) *Limiter {
	l := &Limiter{
		redis:    redis,
		limits:   DefaultLimits,
		metrics:  m,
		recorder: recorder,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.disabled {
		logger.Info("rate limiting disabled")
	}
	return l
}

// Check increments the fixed window counter for (ip, class) and reports
// whether the request is within limits. Redis errors allow the request.
func (l *Limiter) Check(ctx context.Context, ip string, class EndpointClass) (Result, error) {
	limit, ok := l.limits[class]
	if !ok || l.disabled || l.redis == nil || ip == "" {
		return Result{Allowed: true, Limit: limit.Requests, Remaining: limit.Requests}, nil
	}

	window := time.Now().Truncate(limit.Window)
	key := fmt.Sprintf("ratelimit:%s:%s:%d", class, ip, window.Unix())

	pipe := l.redis.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, limit.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{Allowed: true, Limit: limit.Requests, Remaining: limit.Requests}, err
	}

	count := int(incr.Val())
	remaining := limit.Requests - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= limit.Requests,
		Limit:     limit.Requests,
		Remaining: remaining,
		ResetAt:   window.Add(limit.Window),
	}, nil
}

// Middleware enforces the limit for one endpoint class.
func (l *Limiter) Middleware(class EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			md := mw.GetMetadata(ctx)

			result, err := l.Check(ctx, md.IP, class)
			if err != nil {
				l.logger.ErrorContext(ctx, "rate limit check failed", "class", class, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			addHeaders(w, result)

			if !result.Allowed {
				l.metrics.RateLimitRejected.WithLabelValues(string(class)).Inc()
				if l.recorder != nil {
					l.recorder.Record(ctx, audit.Event{
						Action:    audit.ActionRateLimitExceeded,
						Decision:  "deny",
						Reason:    string(class),
						RequestID: mw.GetRequestID(ctx),
						ClientIP:  md.IP,
						UserAgent: md.UserAgent,
					})
				}
				writeExceeded(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func addHeaders(w http.ResponseWriter, r Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(r.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(r.Remaining))
	if !r.ResetAt.IsZero() {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(r.ResetAt.Unix(), 10))
	}
}

func writeExceeded(w http.ResponseWriter, r Result) {
	retryAfter := int(time.Until(r.ResetAt).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]any{
		"error":  "rate_limited",
		"detail": "too many requests, retry later",
	})
}
