package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bmteam/authgate/internal/auth/domain"
	"github.com/bmteam/authgate/internal/auth/session"
	"github.com/bmteam/authgate/pkg/cryptox"
	"github.com/bmteam/authgate/pkg/slogx"
)

var ErrSessionNotFound = errors.New("session not found or expired")

// DefaultSessionTTL matches the lifetime of the session cookie.
const DefaultSessionTTL = 4 * time.Hour

// SessionService issues and verifies the opaque server-side sessions behind
// the session cookie. Each session carries its own CSRF token for the
// double-submit check.
type SessionService struct {
	Store session.Store
	TTL   time.Duration
}

func (s *SessionService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultSessionTTL
}

// Issue creates a session for the user and stores it under a fresh opaque ID.
func (s *SessionService) Issue(ctx context.Context, user domain.User) (domain.Session, error) {
	log := slogx.FromContext(ctx)

	id, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Session{}, err
	}
	csrf, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Session{}, err
	}

	now := time.Now().UTC()
	sess := domain.Session{
		ID:        id,
		UserID:    user.ID,
		Role:      user.Role,
		CSRFToken: csrf,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl()),
	}

	if err := s.Store.Set(ctx, sess, s.ttl()); err != nil {
		log.Error("failed to store session", slog.Any("error", err))
		return domain.Session{}, err
	}

	log.Debug("session issued", slog.String("user_id", user.ID))
	return sess, nil
}

// Verify returns the live session for the given opaque ID. Unknown and
// expired IDs are indistinguishable.
func (s *SessionService) Verify(ctx context.Context, id string) (domain.Session, error) {
	if id == "" {
		return domain.Session{}, ErrSessionNotFound
	}

	sess, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return domain.Session{}, ErrSessionNotFound
		}
		return domain.Session{}, err
	}
	return sess, nil
}

// Revoke removes the session. Revoking an unknown ID is a no-op so logout
// stays idempotent.
func (s *SessionService) Revoke(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.Store.Delete(ctx, id)
}

// CleanupExpired sweeps expired sessions from backends without native TTLs.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.Store.DeleteExpired(ctx, time.Now())
}
