package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bmteam/authgate/internal/auth/domain"
	"github.com/bmteam/authgate/internal/auth/store"
	"github.com/bmteam/authgate/pkg/cryptox"
	"github.com/bmteam/authgate/pkg/idx"
)

// LocalProvider keeps accounts in our own store with argon2id password
// hashes.
type LocalProvider struct {
	Store store.Store
}

func NewLocalProvider(st store.Store) *LocalProvider {
	return &LocalProvider{Store: st}
}

func (p *LocalProvider) Create(ctx context.Context, acc NewAccount) (domain.User, error) {
	hash, err := cryptox.HashPassword(acc.Password)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        domain.FoldEmail(acc.Email),
		Name:         strings.TrimSpace(acc.Name),
		PasswordHash: hash,
		Role:         acc.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := p.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrConflict
		}
		return domain.User{}, err
	}
	return u, nil
}

func (p *LocalProvider) Authenticate(ctx context.Context, identifier, password string) (domain.User, error) {
	u, err := p.lookupByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a hash verification so unknown accounts cost the same
			// as wrong passwords.
			_ = cryptox.VerifyPassword(password, dummyHash())
			return domain.User{}, ErrBadCredentials
		}
		return domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		return domain.User{}, ErrBadCredentials
	}
	return u, nil
}

// lookupByIdentifier resolves a login identifier: anything with an "@" is
// treated as an email, otherwise as a display name.
func (p *LocalProvider) lookupByIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	if strings.Contains(identifier, "@") {
		return p.Store.Users().GetUserByEmail(ctx, identifier)
	}
	return p.Store.Users().GetUserByName(ctx, identifier)
}

func (p *LocalProvider) Lookup(ctx context.Context, id string) (domain.User, error) {
	u, err := p.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

// dummyHash is a throwaway argon2id hash used to equalize timing on unknown
// email lookups. Built lazily so importing this package never touches the
// pepper file.
var dummyHash = sync.OnceValue(func() string {
	h, err := cryptox.HashPassword("throwaway-timing-pad")
	if err != nil {
		return ""
	}
	return h
})
