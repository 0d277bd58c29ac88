package principal

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrUnavailable wraps database failures on the existence lookup.
var ErrUnavailable = errors.New("principal backend unavailable")

// DB is the narrow slice of pgxpool.Pool the store needs; it is also
// satisfied by pgxmock in tests.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres resolves principal existence against the principals table.
type Postgres struct {
	db DB
}

// NewPostgres returns a Postgres-backed store over db.
func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Exists(ctx context.Context, principalID string) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx,
		`select exists (select 1 from principals where id = $1)`,
		principalID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return exists, nil
}
