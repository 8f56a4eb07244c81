package store

import (
	"context"
	"errors"
	"time"

	"github.com/bmteam/authgate/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrAlreadyUsed reports a conditional mark-used that found the invite
	// already consumed or revoked. This is the single-use gate: the update
	// only transitions rows that are still unused.
	ErrAlreadyUsed = errors.New("store: invite already used")

	// ErrTxUnsupported is returned for operations that make no sense on a
	// transaction-scoped store, such as nesting transactions.
	ErrTxUnsupported = errors.New("store: operation not supported inside a transaction")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement this. Sub-repositories keep concerns tidy and testable.
type Store interface {
	Users() Users
	Invites() Invites

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing on nil and
	// rolling back on error. This is the recommended way to run
	// multi-step operations that must be atomic (e.g. consume-then-create
	// during registration).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Same repos, plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up by case-folded email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByName looks up by display name, case-insensitively. Names
	// double as login identifiers and are unique.
	GetUserByName(ctx context.Context, name string) (domain.User, error)

	// CreateUser inserts a new user (id provided by the app via ULID).
	// Returns ErrAlreadyExists when the case-folded email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// CountUsers returns the total number of identities.
	CountUsers(ctx context.Context) (int64, error)
}

type Invites interface {
	// CreateInvite writes a new invite (token_hash is the keyed
	// fingerprint of the opaque token, unique).
	CreateInvite(ctx context.Context, inv domain.Invite) error

	// GetInviteByTokenHash returns the invite regardless of its state;
	// callers derive used/revoked/expired from the record.
	GetInviteByTokenHash(ctx context.Context, hash string) (domain.Invite, error)

	// GetInviteByID returns the invite by id.
	GetInviteByID(ctx context.Context, id string) (domain.Invite, error)

	// MarkInviteUsed conditionally consumes the invite: the transition
	// happens only if the row is still unused and unrevoked, otherwise
	// ErrAlreadyUsed. This closes the race between concurrent consumers.
	MarkInviteUsed(ctx context.Context, inviteID, usedBy string, at time.Time) error

	// ReleaseInvite clears a consumption reservation after a failed
	// registration. Internal unwind only; there is no public un-use.
	ReleaseInvite(ctx context.Context, inviteID string) error

	// AttributeInvite records who redeemed an already-consumed invite.
	AttributeInvite(ctx context.Context, inviteID, usedBy string) error

	// RevokeInvite permanently disables the invite. Revoking an already
	// revoked or used invite reports ErrAlreadyUsed.
	RevokeInvite(ctx context.Context, inviteID string) error

	// ListInvites returns all invites, newest first.
	ListInvites(ctx context.Context) ([]domain.Invite, error)

	// DeleteExpiredInvites removes invites past expiry at the given
	// instant and reports how many went away.
	DeleteExpiredInvites(ctx context.Context, now time.Time) (int64, error)
}
