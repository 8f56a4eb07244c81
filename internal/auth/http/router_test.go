package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bmteam/authgate/internal/auth/domain"
	"github.com/bmteam/authgate/internal/auth/identity"
	"github.com/bmteam/authgate/internal/auth/service"
	"github.com/bmteam/authgate/internal/auth/session"
	"github.com/bmteam/authgate/internal/auth/store/drivers/sqlite"
	"github.com/bmteam/authgate/pkg/authsdk"
	"github.com/bmteam/authgate/pkg/cryptox"
	"github.com/bmteam/authgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "http-test-*")
	if err != nil {
		os.Exit(1)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type testEnv struct {
	server *httptest.Server
	signer *jwtx.HS256
	auth   *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewHS256("test-jwt-secret", "authgate-test")
	require.NoError(t, err)

	sessions := session.NewMemoryStore()
	invites := &service.InviteService{Store: st, Secret: "test-invite-secret"}
	sessionSvc := &service.SessionService{Store: sessions, TTL: time.Hour}
	auth := &service.AuthService{
		Invites:  invites,
		Identity: identity.NewLocalProvider(st),
		Sessions: sessionSvc,
		Signer:   signer,
		JWTTTL:   time.Hour,
	}

	router := NewRouter(signer, "test", st, sessions, slog.Default())
	router.AuthService = auth
	router.InviteService = invites
	router.SessionService = sessionSvc
	router.CookieSecure = false
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, signer: signer, auth: auth}
}

// adminClient returns an SDK client holding a minted admin bearer token.
func (e *testEnv) adminClient(t *testing.T) *authsdk.Client {
	t.Helper()

	token, err := e.signer.Sign(jwtx.NewClaims("admin-user", string(domain.RoleAdmin), "authgate-test", time.Hour, time.Now()))
	require.NoError(t, err)

	c := authsdk.NewClient(e.server.URL)
	c.AccessToken = token
	return c
}

func TestInviteLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.adminClient(t)
	anon := authsdk.NewClient(env.server.URL)

	created, err := admin.CreateInvite(ctx, authsdk.InviteCreateRequest{
		Email: "invitee@example.com",
		Role:  "member",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.InviteToken)
	require.Equal(t, "member", created.Role)

	t.Run("anonymous validation", func(t *testing.T) {
		status, err := anon.ValidateInvite(ctx, created.InviteToken, "")
		require.NoError(t, err)
		require.True(t, status.Valid)
		require.Equal(t, "invitee@example.com", status.Email)

		status, err = anon.ValidateInvite(ctx, "bogus-token", "")
		require.NoError(t, err)
		require.False(t, status.Valid)
		require.Empty(t, status.Email)
	})

	t.Run("list redacts tokens", func(t *testing.T) {
		list, err := admin.ListInvites(ctx)
		require.NoError(t, err)
		require.Len(t, list.Invites, 1)
		require.Equal(t, created.InviteID, list.Invites[0].ID)
		require.False(t, list.Invites[0].Used)
	})

	t.Run("revoke", func(t *testing.T) {
		require.NoError(t, admin.RevokeInvite(ctx, created.InviteID))

		status, err := anon.ValidateInvite(ctx, created.InviteToken, "")
		require.NoError(t, err)
		require.False(t, status.Valid)

		err = admin.RevokeInvite(ctx, created.InviteID)
		require.True(t, authsdk.IsStatus(err, http.StatusConflict))

		err = admin.RevokeInvite(ctx, "no-such-id")
		require.True(t, authsdk.IsStatus(err, http.StatusNotFound))
	})

	t.Run("cleanup", func(t *testing.T) {
		res, err := admin.CleanupInvites(ctx)
		require.NoError(t, err)
		require.Zero(t, res.Removed)
	})
}

func TestInviteEndpointsRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("anonymous is 401", func(t *testing.T) {
		anon := authsdk.NewClient(env.server.URL)
		_, err := anon.ListInvites(ctx)
		require.True(t, authsdk.IsStatus(err, http.StatusUnauthorized))
	})

	t.Run("member is 403", func(t *testing.T) {
		token, err := env.signer.Sign(jwtx.NewClaims("member-user", string(domain.RoleMember), "authgate-test", time.Hour, time.Now()))
		require.NoError(t, err)

		member := authsdk.NewClient(env.server.URL)
		member.AccessToken = token
		_, err = member.ListInvites(ctx)
		require.True(t, authsdk.IsStatus(err, http.StatusForbidden))
	})
}

func TestRegisterAndLoginOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.adminClient(t)

	created, err := admin.CreateInvite(ctx, authsdk.InviteCreateRequest{
		Email: "alice@example.com",
		Role:  "member",
	})
	require.NoError(t, err)

	user := authsdk.NewClient(env.server.URL)

	registered, err := user.Register(ctx, authsdk.RegisterRequest{
		InviteToken: created.InviteToken,
		Email:       "alice@example.com",
		Name:        "Alice",
		Password:    "hunter2!pass",
	})
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", registered.User.Email)
	require.Equal(t, "member", registered.User.Role)
	require.NotEmpty(t, registered.AccessToken)

	t.Run("registration signs the new account in", func(t *testing.T) {
		var sid, csrf bool
		for _, ck := range user.HTTPClient.Jar.Cookies(mustParseURL(t, env.server.URL)) {
			switch ck.Name {
			case authsdk.SessionCookieName:
				sid = ck.Value != ""
			case authsdk.CSRFCookieName:
				csrf = ck.Value != ""
			}
		}
		require.True(t, sid)
		require.True(t, csrf)

		// The cookie alone authenticates without a follow-up login.
		cookieOnly := *user
		cookieOnly.AccessToken = ""
		me, err := cookieOnly.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, registered.User.ID, me.ID)
	})

	t.Run("spent token cannot register again", func(t *testing.T) {
		other := authsdk.NewClient(env.server.URL)
		_, err := other.Register(ctx, authsdk.RegisterRequest{
			InviteToken: created.InviteToken,
			Email:       "alice@example.com",
			Name:        "Imposter",
			Password:    "password123",
		})
		require.True(t, authsdk.IsStatus(err, http.StatusBadRequest))
	})

	login, err := user.Login(ctx, "alice@example.com", "hunter2!pass")
	require.NoError(t, err)
	require.NotEmpty(t, login.AccessToken)
	require.Equal(t, "Bearer", login.TokenType)

	t.Run("display name works as the login identifier", func(t *testing.T) {
		byName := authsdk.NewClient(env.server.URL)
		res, err := byName.Login(ctx, "Alice", "hunter2!pass")
		require.NoError(t, err)
		require.Equal(t, registered.User.ID, res.User.ID)
	})

	t.Run("me via session cookie", func(t *testing.T) {
		cookieOnly := *user
		cookieOnly.AccessToken = ""
		me, err := cookieOnly.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", me.Email)
	})

	t.Run("me via bearer token", func(t *testing.T) {
		bearer := authsdk.NewClient(env.server.URL)
		bearer.AccessToken = login.AccessToken
		me, err := bearer.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, registered.User.ID, me.ID)
	})

	t.Run("wrong password is uniform 401", func(t *testing.T) {
		fresh := authsdk.NewClient(env.server.URL)
		_, err := fresh.Login(ctx, "alice@example.com", "wrong")
		require.True(t, authsdk.IsStatus(err, http.StatusUnauthorized))

		_, err = fresh.Login(ctx, "nobody@example.com", "hunter2!pass")
		require.True(t, authsdk.IsStatus(err, http.StatusUnauthorized))
	})
}

func TestLogoutOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.adminClient(t)

	created, err := admin.CreateInvite(ctx, authsdk.InviteCreateRequest{Email: "bob@example.com"})
	require.NoError(t, err)

	user := authsdk.NewClient(env.server.URL)
	_, err = user.Register(ctx, authsdk.RegisterRequest{
		InviteToken: created.InviteToken,
		Email:       "bob@example.com",
		Name:        "Bob",
		Password:    "hunter2!pass",
	})
	require.NoError(t, err)

	login, err := user.Login(ctx, "bob@example.com", "hunter2!pass")
	require.NoError(t, err)

	// Drop the bearer token so logout and me go through the cookie path.
	user.AccessToken = ""

	require.NoError(t, user.Logout(ctx))

	_, err = user.Me(ctx)
	require.True(t, authsdk.IsStatus(err, http.StatusUnauthorized))

	t.Run("access token survives logout", func(t *testing.T) {
		bearer := authsdk.NewClient(env.server.URL)
		bearer.AccessToken = login.AccessToken
		_, err := bearer.Me(ctx)
		require.NoError(t, err)
	})
}

func TestCSRFEnforcedOnCookieRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.adminClient(t)

	created, err := admin.CreateInvite(ctx, authsdk.InviteCreateRequest{Email: "carol@example.com"})
	require.NoError(t, err)

	user := authsdk.NewClient(env.server.URL)
	_, err = user.Register(ctx, authsdk.RegisterRequest{
		InviteToken: created.InviteToken,
		Email:       "carol@example.com",
		Name:        "Carol",
		Password:    "hunter2!pass",
	})
	require.NoError(t, err)
	_, err = user.Login(ctx, "carol@example.com", "hunter2!pass")
	require.NoError(t, err)

	// Replay the session cookie without the CSRF header.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, env.server.URL+"/v1/auth/logout", nil)
	require.NoError(t, err)
	for _, ck := range user.HTTPClient.Jar.Cookies(mustParseURL(t, env.server.URL)) {
		if ck.Name == authsdk.SessionCookieName {
			req.AddCookie(ck)
		}
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := authsdk.NewClient(env.server.URL)

	live, err := c.Livez(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := c.Readyz(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Sessions)
}
