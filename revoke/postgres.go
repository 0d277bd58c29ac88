package revoke

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the one relational table this package owns. Apply it with the
// host application's migration tooling.
const Schema = `
create table if not exists revoked_tokens (
	token_id     text primary key,
	principal_id text not null,
	expires_at   timestamptz not null
);
create index if not exists revoked_tokens_expires_at_idx on revoked_tokens (expires_at);
`

// DB is the narrow slice of pgxpool.Pool the store needs; it is also
// satisfied by pgxmock in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is a [Store] backed by the revoked_tokens table, for deployments
// that already externalize state in Postgres rather than Redis.
type Postgres struct {
	db     DB
	writes atomic.Int64
}

// NewPostgres returns a Postgres-backed store over db.
func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Revoke(ctx context.Context, tokenID, principalID string, expiresAt time.Time) error {
	if !expiresAt.After(time.Now()) {
		return ErrExpiryInPast
	}

	_, err := p.db.Exec(ctx,
		`insert into revoked_tokens (token_id, principal_id, expires_at) values ($1, $2, $3)
		 on conflict (token_id) do nothing`,
		tokenID, principalID, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Opportunistic purge of expired rows, amortized across writes.
	if p.writes.Add(1)%purgeEvery == 0 {
		if _, err := p.db.Exec(ctx, `delete from revoked_tokens where expires_at <= now()`); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return nil
}

func (p *Postgres) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := p.db.QueryRow(ctx,
		`select exists (select 1 from revoked_tokens where token_id = $1 and expires_at > now())`,
		tokenID,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return revoked, nil
}
