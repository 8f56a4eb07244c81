// Package identity abstracts where user accounts live. The local provider
// keeps them in our own store; the federated provider defers to an external
// directory service.
package identity

import (
	"context"
	"errors"

	"github.com/bmteam/authgate/internal/auth/domain"
)

var (
	// ErrNotFound reports an unknown account.
	ErrNotFound = errors.New("identity: account not found")

	// ErrConflict reports that the email or name already has an account.
	ErrConflict = errors.New("identity: account already exists")

	// ErrBadCredentials is the single failure for authentication, covering
	// both unknown emails and wrong passwords.
	ErrBadCredentials = errors.New("identity: invalid credentials")
)

// NewAccount carries everything needed to create an identity. The role comes
// from the consumed invite, never from the registrant.
type NewAccount struct {
	Email    string
	Name     string
	Password string
	Role     domain.Role
}

type Provider interface {
	// Create provisions an account and returns the stored user.
	Create(ctx context.Context, acc NewAccount) (domain.User, error)

	// Authenticate verifies the password for an account addressed by email
	// or name and returns the user, or ErrBadCredentials without revealing
	// which part failed.
	Authenticate(ctx context.Context, identifier, password string) (domain.User, error)

	// Lookup returns the user by ID.
	Lookup(ctx context.Context, id string) (domain.User, error)
}
