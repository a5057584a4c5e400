package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"ballotbox/internal/ratelimit/metrics"
	"ballotbox/internal/ratelimit/models"
	"ballotbox/pkg/platform/audit"
	"ballotbox/pkg/platform/httputil"
	"ballotbox/pkg/requestcontext"
)

// BucketStore is a sliding-window counter.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

type Middleware struct {
	store    BucketStore
	limit    int
	window   time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  audit.Emitter
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables throttling entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) { m.disabled = disabled }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) { m.metrics = mt }
}

func WithAuditor(a audit.Emitter) Option {
	return func(m *Middleware) { m.auditor = a }
}

func New(store BucketStore, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:   store,
		limit:   limit,
		window:  window,
		logger:  logger,
		auditor: audit.Nop{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("census attempt throttling disabled")
	}
	return m
}

// Throttle limits attempts per authenticated user, falling back to client IP
// for anonymous callers. Store failures let the request through: the census
// gateway has its own breaker.
func (m *Middleware) Throttle(scope models.Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			identifier := "ip:" + requestcontext.ClientIP(ctx)
			if userID := requestcontext.UserID(ctx); !userID.IsNil() {
				identifier = "user:" + userID.String()
			}

			result, err := m.store.Allow(ctx, models.Key(scope, identifier), m.limit, m.window)
			if err != nil {
				m.metrics.IncCheckErrors()
				m.logger.ErrorContext(ctx, "failed to check throttle",
					"error", err,
					"scope", string(scope),
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				m.metrics.IncThrottled(string(scope))
				m.logger.WarnContext(ctx, "census attempts throttled",
					"scope", string(scope),
					"request_id", requestcontext.RequestID(ctx),
				)
				event := audit.Event{
					Action:    audit.EventThrottled,
					UserID:    userIDString(ctx),
					Reason:    string(scope),
					RequestID: requestcontext.RequestID(ctx),
					ClientIP:  requestcontext.ClientIP(ctx),
					Device:    requestcontext.Device(ctx),
				}
				if err := m.auditor.Emit(ctx, event.Normalize(requestcontext.Now(ctx))); err != nil {
					m.logger.WarnContext(ctx, "failed to emit audit event",
						"request_id", event.RequestID,
						"action", string(event.Action),
						"error", err,
					)
				}
				writeRateLimitExceeded(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func userIDString(ctx context.Context) string {
	if userID := requestcontext.UserID(ctx); !userID.IsNil() {
		return userID.String()
	}
	return ""
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many verification attempts. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
