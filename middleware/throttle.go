package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	authcore "github.com/veilmail/authcore"
	"github.com/veilmail/authcore/ratelimit"
)

// ThrottleConfig wires one tier onto a route class.
type ThrottleConfig struct {
	Limiter ratelimit.Limiter
	Tier    ratelimit.Tier
	// Key defaults to [ByClientIP].
	Key KeyFunc
	// Metrics, when set, counts blocks per tier.
	Metrics *authcore.Metrics
	// Logger defaults to slog.Default. Blocks are an expected outcome and
	// are never logged; only backend failures are.
	Logger *slog.Logger
}

// Throttle consumes one point from the tier's budget before the wrapped
// handler runs. Blocked callers get 429 with Retry-After and the
// X-RateLimit-* headers; admitted callers get the remaining budget and
// reset time so well-behaved clients can self-throttle. A limiter backend
// failure admits the request (availability over throttling) and logs the
// failure.
func Throttle(cfg ThrottleConfig) func(http.Handler) http.Handler {
	key := cfg.Key
	if key == nil {
		key = ByClientIP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := cfg.Limiter.Consume(r.Context(), cfg.Tier, key(r))
			if err != nil {
				logger := cfg.Logger
				if logger == nil {
					logger = slog.Default()
				}
				logger.WarnContext(r.Context(), "rate limit backend failure, admitting request",
					"tier", cfg.Tier.Name, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Tier.Points))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				cfg.Metrics.ObserveBlock(cfg.Tier.Name)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(res.RetryAfter)))
				writeError(w, http.StatusTooManyRequests,
					"RATE_LIMITED", "too many requests", string(authcore.SeverityLow))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds rounds up so a client honoring the header never retries
// inside the block.
func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
