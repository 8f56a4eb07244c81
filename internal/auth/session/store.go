// Package session holds the server-side session records behind the opaque
// session cookie. Stores are pluggable: an in-process map for single-node
// deployments and Redis when sessions must survive restarts or be shared.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/bmteam/authgate/internal/auth/domain"
)

// ErrNotFound covers both unknown and expired session IDs. Callers cannot
// distinguish the two, which keeps probing uninformative.
var ErrNotFound = errors.New("session: not found")

type Store interface {
	// Set writes the session under its ID with the given TTL.
	Set(ctx context.Context, s domain.Session, ttl time.Duration) error

	// Get returns the session, or ErrNotFound if it is unknown or expired.
	Get(ctx context.Context, id string) (domain.Session, error)

	// Delete removes the session. Deleting an unknown ID is a no-op.
	Delete(ctx context.Context, id string) error

	// DeleteExpired sweeps expired sessions and reports how many were
	// removed. Backends with native TTLs may report zero.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}
