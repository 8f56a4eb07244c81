package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	r, _ := newTestRedisStore(t)
	ctx := context.Background()

	s := newTestSession(time.Hour)
	require.NoError(t, r.Set(ctx, s, time.Hour))

	got, err := r.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, s.ID, got.ID)
	require.Equal(t, s.UserID, got.UserID)
	require.Equal(t, s.Role, got.Role)
	require.Equal(t, s.CSRFToken, got.CSRFToken)

	_, err = r.Get(ctx, "unknown")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreTTLEviction(t *testing.T) {
	r, mr := newTestRedisStore(t)
	ctx := context.Background()

	s := newTestSession(time.Hour)
	require.NoError(t, r.Set(ctx, s, time.Minute))

	mr.FastForward(2 * time.Minute)

	_, err := r.Get(ctx, s.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreDelete(t *testing.T) {
	r, _ := newTestRedisStore(t)
	ctx := context.Background()

	s := newTestSession(time.Hour)
	require.NoError(t, r.Set(ctx, s, time.Hour))
	require.NoError(t, r.Delete(ctx, s.ID))

	_, err := r.Get(ctx, s.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.Delete(ctx, s.ID))
}

func TestRedisStorePing(t *testing.T) {
	r, mr := newTestRedisStore(t)
	require.NoError(t, r.Ping(context.Background()))

	mr.Close()
	require.Error(t, r.Ping(context.Background()))
}
