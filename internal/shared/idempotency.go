package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Execer is the subset of pgx capable of running statements. Both
// *pgxpool.Pool and pgx.Tx satisfy it, which lets idempotency inserts
// participate in the caller's transaction.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// IdempotencyStore persists processed external event keys.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// CheckAndInsert records the key, using the provided Execer so the
// insert commits or rolls back together with the surrounding work.
// Returns false without error when the key was seen before: a unique
// violation would abort the surrounding transaction, so the duplicate
// check must not fail the statement.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, exec Execer, key, module string) (bool, error) {
	if exec == nil {
		exec = s.pool
	}
	if key == "" {
		return false, errors.New("idempotency key required")
	}
	if module == "" {
		return false, errors.New("idempotency module required")
	}
	tag, err := exec.Exec(ctx,
		`INSERT INTO idempotency_keys (key, module, created_at) VALUES ($1, $2, $3) ON CONFLICT (key) DO NOTHING`,
		key, module, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Cleanup removes entries older than retention.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s == nil {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	tag, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
