package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps backend failures so callers can decide their own
// degradation policy; exhaustion itself is never an error.
var ErrUnavailable = errors.New("rate limit backend unavailable")

// Tier is an independently configured quota policy applied to a class of
// routes. Once Points are exhausted within Window, the caller key is
// blocked for the full Block duration regardless of the window resetting.
type Tier struct {
	Name   string
	Points int
	Window time.Duration
	Block  time.Duration
}

// The three required tiers. Auth failures are throttled hard per IP,
// general API traffic gets a wide per-IP budget, and the upstream-quota
// proxy tier paces per-principal calls against the provider's own limits.
var (
	TierAuth  = Tier{Name: "auth", Points: 5, Window: 15 * time.Minute, Block: 15 * time.Minute}
	TierAPI   = Tier{Name: "api", Points: 100, Window: time.Minute, Block: time.Minute}
	TierQuota = Tier{Name: "quota", Points: 250, Window: 100 * time.Second, Block: 100 * time.Second}
)

// Result reports the outcome of a consumption attempt. When Allowed is
// false the caller is inside a block: RetryAfter is how long until the
// block clears and Remaining is zero.
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter tracks consumption against per-key budgets across tiers.
// Consume must be atomic per (tier, key): two concurrent calls for the same
// key never both observe the same pre-increment counter value.
type Limiter interface {
	Consume(ctx context.Context, tier Tier, key string) (Result, error)
}
