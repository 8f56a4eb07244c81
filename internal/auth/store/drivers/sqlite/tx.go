package sqlite

import (
	"context"
	"database/sql"

	"github.com/bmteam/authgate/internal/auth/store"
)

// txStore exposes the repository surface over a live transaction.
type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Users() store.Users     { return &usersRepo{q: t.tx} }
func (t *txStore) Invites() store.Invites { return &invitesRepo{q: t.tx} }

func (t *txStore) Ping(ctx context.Context) error {
	return t.tx.QueryRowContext(ctx, `SELECT 1`).Err()
}

func (t *txStore) Close() error { return t.tx.Rollback() }

func (t *txStore) ApplyMigrations() error { return store.ErrTxUnsupported }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, store.ErrTxUnsupported
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return fn(t)
}
