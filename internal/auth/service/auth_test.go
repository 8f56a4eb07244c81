package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bmteam/authgate/internal/auth/domain"
	"github.com/bmteam/authgate/internal/auth/identity"
	"github.com/bmteam/authgate/internal/auth/session"
	"github.com/bmteam/authgate/internal/auth/store/drivers/sqlite"
	"github.com/bmteam/authgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewHS256("test-jwt-secret", "authgate-test")
	require.NoError(t, err)

	return &AuthService{
		Invites:  &InviteService{Store: st, Secret: testInviteSecret},
		Identity: identity.NewLocalProvider(st),
		Sessions: &SessionService{Store: session.NewMemoryStore(), TTL: time.Hour},
		Signer:   signer,
	}
}

func TestRegisterWithInvite(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()

	token, inv, err := s.Invites.CreateInvite(ctx, "new@example.com", domain.RoleAdmin, time.Hour, "creator")
	require.NoError(t, err)

	reg, err := s.Register(ctx, token, "new@example.com", "New User", "hunter2!pass")
	require.NoError(t, err)
	user := reg.User
	require.Equal(t, "new@example.com", user.Email)

	// Role comes from the invite, not from the registrant.
	require.Equal(t, domain.RoleAdmin, user.Role)

	// Registration signs the new account in: both credential forms are live.
	require.NotEmpty(t, reg.Session.ID)
	sess, err := s.Sessions.Verify(ctx, reg.Session.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, sess.UserID)

	claims, err := s.Signer.Verify(reg.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Subject)
	require.Equal(t, string(domain.RoleAdmin), claims.Role)

	// The redemption is attributed to the new user.
	got, err := s.Invites.Store.Invites().GetInviteByID(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.UsedAt)
	require.Equal(t, user.ID, got.UsedBy)

	// The token is spent.
	_, err = s.Register(ctx, token, "new@example.com", "Someone Else", "otherpass1")
	require.ErrorIs(t, err, ErrInviteAlreadyUsed)
}

func TestRegisterBadToken(t *testing.T) {
	s := newAuthService(t)

	_, err := s.Register(context.Background(), "bogus", "a@example.com", "A", "password1")
	require.ErrorIs(t, err, ErrInviteNotFound)
}

func TestRegisterEmailMismatch(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()

	token, _, err := s.Invites.CreateInvite(ctx, "intended@example.com", domain.RoleMember, time.Hour, "creator")
	require.NoError(t, err)

	_, err = s.Register(ctx, token, "other@example.com", "Other", "password1")
	require.ErrorIs(t, err, ErrEmailMismatch)
}

func TestRegisterReleasesInviteOnFailure(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()

	// Occupy the email so account creation fails after the claim.
	token1, _, err := s.Invites.CreateInvite(ctx, "dup@example.com", domain.RoleMember, time.Hour, "creator")
	require.NoError(t, err)
	_, err = s.Register(ctx, token1, "dup@example.com", "First", "password1")
	require.NoError(t, err)

	token2, _, err := s.Invites.CreateInvite(ctx, "dup@example.com", domain.RoleMember, time.Hour, "creator")
	require.NoError(t, err)

	_, err = s.Register(ctx, token2, "dup@example.com", "Second", "password2")
	require.ErrorIs(t, err, identity.ErrConflict)

	// The claim was unwound so the invite is still redeemable.
	status, err := s.Invites.ValidateInvite(ctx, token2, "")
	require.NoError(t, err)
	require.True(t, status.Valid)
}

func TestLoginIssuesBothCredentials(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()

	token, _, err := s.Invites.CreateInvite(ctx, "alice@example.com", domain.RoleMember, time.Hour, "creator")
	require.NoError(t, err)
	reg, err := s.Register(ctx, token, "alice@example.com", "Alice", "hunter2!pass")
	require.NoError(t, err)
	user := reg.User

	res, err := s.Login(ctx, "Alice@Example.com", "hunter2!pass")
	require.NoError(t, err)
	require.Equal(t, user.ID, res.User.ID)
	require.NotEmpty(t, res.Session.ID)
	require.NotEmpty(t, res.Session.CSRFToken)

	// The stateless credential is a verifiable JWT carrying subject+role.
	claims, err := s.Signer.Verify(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Subject)
	require.Equal(t, string(domain.RoleMember), claims.Role)

	// The stateful credential verifies through the session store.
	sess, err := s.Sessions.Verify(ctx, res.Session.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, sess.UserID)

	// The display name is an equivalent login identifier.
	byName, err := s.Login(ctx, "alice", "hunter2!pass")
	require.NoError(t, err)
	require.Equal(t, user.ID, byName.User.ID)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()

	token, _, err := s.Invites.CreateInvite(ctx, "bob@example.com", domain.RoleMember, time.Hour, "creator")
	require.NoError(t, err)
	_, err = s.Register(ctx, token, "bob@example.com", "Bob", "hunter2!pass")
	require.NoError(t, err)

	_, err = s.Login(ctx, "bob@example.com", "wrongpass")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, "nobody@example.com", "hunter2!pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, "nobody", "hunter2!pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesSession(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()

	token, _, err := s.Invites.CreateInvite(ctx, "carol@example.com", domain.RoleMember, time.Hour, "creator")
	require.NoError(t, err)
	_, err = s.Register(ctx, token, "carol@example.com", "Carol", "hunter2!pass")
	require.NoError(t, err)

	res, err := s.Login(ctx, "carol@example.com", "hunter2!pass")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, res.Session.ID))
	_, err = s.Sessions.Verify(ctx, res.Session.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)

	// The stateless credential stays valid until expiry.
	_, err = s.Signer.Verify(res.AccessToken)
	require.NoError(t, err)
}

func TestMe(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()

	token, _, err := s.Invites.CreateInvite(ctx, "dave@example.com", domain.RoleOwner, time.Hour, "creator")
	require.NoError(t, err)
	reg, err := s.Register(ctx, token, "dave@example.com", "Dave", "hunter2!pass")
	require.NoError(t, err)
	user := reg.User

	got, err := s.Me(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Email, got.Email)
	require.Equal(t, domain.RoleOwner, got.Role)

	_, err = s.Me(ctx, "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
}
