package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStoreAppliesConnPragmas(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var timeout int
	require.NoError(t, s.db.QueryRowContext(ctx, `PRAGMA busy_timeout`).Scan(&timeout))
	require.Equal(t, 5000, timeout)

	var mode string
	require.NoError(t, s.db.QueryRowContext(ctx, `PRAGMA journal_mode`).Scan(&mode))
	require.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, s.db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk))
	require.Equal(t, 1, fk)
}
