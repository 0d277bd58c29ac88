package revoke

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrExpiryInPast is returned when a revocation record would expire
	// before now. Such a token already fails verification on its own.
	ErrExpiryInPast = errors.New("revocation expiry in the past")
	// ErrUnavailable wraps backend failures (Redis, Postgres) so callers
	// can treat them uniformly as infrastructure errors.
	ErrUnavailable = errors.New("revocation backend unavailable")
)

// Store records token ids that are no longer honored. Implementations must
// guarantee that a Revoke which returns before an IsRevoked call starts is
// observed by that call; there is no eventual-consistency window for this
// check.
//
// Revoke is idempotent: revoking an already-revoked token id is a no-op.
// Records become irrelevant once expiresAt passes and may be purged at any
// point after that.
type Store interface {
	Revoke(ctx context.Context, tokenID, principalID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
