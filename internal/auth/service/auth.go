package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bmteam/authgate/internal/auth/domain"
	"github.com/bmteam/authgate/internal/auth/identity"
	"github.com/bmteam/authgate/pkg/jwtx"
	"github.com/bmteam/authgate/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// AuthService ties invites, identities, sessions and JWT minting into the
// registration and login flows.
type AuthService struct {
	Invites  *InviteService
	Identity identity.Provider
	Sessions *SessionService
	Signer   *jwtx.HS256
	JWTTTL   time.Duration
}

func (s *AuthService) jwtTTL() time.Duration {
	if s.JWTTTL > 0 {
		return s.JWTTTL
	}
	return jwtx.DefaultTTL
}

// JWTTTLSeconds is the effective access token lifetime, for expires_in
// style responses.
func (s *AuthService) JWTTTLSeconds() int64 {
	return int64(s.jwtTTL().Seconds())
}

// LoginResult is everything a successful login produces: the user, the
// stateful session and a stateless access token.
type LoginResult struct {
	User        domain.User
	Session     domain.Session
	AccessToken string
}

// Register redeems an invite, provisions the account and signs the new
// user in. The invite is claimed first so exactly one concurrent registrant
// can win it; if account creation then fails the claim is released and the
// invite becomes redeemable again.
func (s *AuthService) Register(ctx context.Context, token, email, name, password string) (LoginResult, error) {
	log := slogx.FromContext(ctx)

	inv, err := s.Invites.ConsumeInvite(ctx, token, email, "")
	if err != nil {
		return LoginResult{}, err
	}

	user, err := s.Identity.Create(ctx, identity.NewAccount{
		Email:    email,
		Name:     name,
		Password: password,
		Role:     inv.Role,
	})
	if err != nil {
		if relErr := s.Invites.ReleaseInvite(ctx, inv.ID); relErr != nil {
			log.Error("failed to release invite after registration failure",
				slog.String("invite_id", inv.ID),
				slog.Any("error", relErr),
			)
		}
		return LoginResult{}, err
	}

	// Record who actually redeemed the invite. The claim already holds;
	// attribution is best effort.
	if err := s.Invites.Store.Invites().AttributeInvite(ctx, inv.ID, user.ID); err != nil {
		log.Warn("failed to attribute invite redemption",
			slog.String("invite_id", inv.ID),
			slog.Any("error", err),
		)
	}

	log.Info("user registered via invite",
		slog.String("user_id", user.ID),
		slog.String("invite_id", inv.ID),
		slog.String("role", string(user.Role)),
	)
	return s.issueCredentials(ctx, user)
}

// Login verifies credentials for an account addressed by email or name and
// issues both credential forms. All verification failures collapse into
// ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	log := slogx.FromContext(ctx)

	user, err := s.Identity.Authenticate(ctx, identifier, password)
	if err != nil {
		if errors.Is(err, identity.ErrBadCredentials) {
			log.Info("login failed")
			return LoginResult{}, ErrInvalidCredentials
		}
		log.Error("identity provider failure during login", slog.Any("error", err))
		return LoginResult{}, err
	}

	log.Info("user logged in", slog.String("user_id", user.ID))
	return s.issueCredentials(ctx, user)
}

// issueCredentials mints the stateful session and the stateless access
// token for an already verified user.
func (s *AuthService) issueCredentials(ctx context.Context, user domain.User) (LoginResult, error) {
	sess, err := s.Sessions.Issue(ctx, user)
	if err != nil {
		return LoginResult{}, err
	}

	claims := jwtx.NewClaims(user.ID, string(user.Role), s.Signer.Issuer(), s.jwtTTL(), time.Now().UTC())
	accessToken, err := s.Signer.Sign(claims)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to sign access token", slog.Any("error", err))
		return LoginResult{}, err
	}

	return LoginResult{User: user, Session: sess, AccessToken: accessToken}, nil
}

// Logout revokes the session. Idempotent.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.Sessions.Revoke(ctx, sessionID)
}

// Me returns the account behind an authenticated user ID.
func (s *AuthService) Me(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.Identity.Lookup(ctx, userID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}
