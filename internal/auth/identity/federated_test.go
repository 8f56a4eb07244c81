package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bmteam/authgate/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func newDirectoryServer(t *testing.T) (*httptest.Server, *FederatedProvider) {
	t.Helper()

	mux := http.NewServeMux()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	mux.HandleFunc("POST /v1/accounts", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer dir-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in["email"] == "taken@example.com" {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(directoryUser{
			ID: "dir-1", Email: in["email"], Name: in["name"], Role: in["role"],
			CreatedAt: now, UpdatedAt: now,
		})
	})

	mux.HandleFunc("POST /v1/accounts/authenticate", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		known := in["identifier"] == "alice@example.com" || in["identifier"] == "alice"
		if !known || in["password"] != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(directoryUser{
			ID: "dir-1", Email: "alice@example.com", Name: "Alice", Role: "member",
			CreatedAt: now, UpdatedAt: now,
		})
	})

	var flakyCalls atomic.Int32
	mux.HandleFunc("GET /v1/accounts/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "dir-1":
		case "flaky":
			// First attempt dies mid-connection; the retry succeeds.
			if flakyCalls.Add(1) == 1 {
				panic(http.ErrAbortHandler)
			}
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(directoryUser{
			ID: "dir-1", Email: "alice@example.com", Name: "Alice", Role: "member",
			CreatedAt: now, UpdatedAt: now,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, NewFederatedProvider(srv.URL, "dir-key")
}

func TestFederatedCreate(t *testing.T) {
	_, p := newDirectoryServer(t)
	ctx := context.Background()

	u, err := p.Create(ctx, NewAccount{
		Email: "Alice@Example.com", Name: "Alice", Password: "s3cret", Role: domain.RoleMember,
	})
	require.NoError(t, err)
	require.Equal(t, "dir-1", u.ID)
	require.Equal(t, "alice@example.com", u.Email)
	require.Equal(t, domain.RoleMember, u.Role)

	_, err = p.Create(ctx, NewAccount{
		Email: "taken@example.com", Name: "Bob", Password: "pw", Role: domain.RoleMember,
	})
	require.ErrorIs(t, err, ErrConflict)
}

func TestFederatedAuthenticate(t *testing.T) {
	_, p := newDirectoryServer(t)
	ctx := context.Background()

	u, err := p.Authenticate(ctx, "ALICE@example.com", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "dir-1", u.ID)

	u, err = p.Authenticate(ctx, "alice", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "dir-1", u.ID)

	_, err = p.Authenticate(ctx, "alice@example.com", "wrong")
	require.ErrorIs(t, err, ErrBadCredentials)

	_, err = p.Authenticate(ctx, "nobody@example.com", "s3cret")
	require.ErrorIs(t, err, ErrBadCredentials)
}

func TestFederatedLookup(t *testing.T) {
	_, p := newDirectoryServer(t)
	ctx := context.Background()

	u, err := p.Lookup(ctx, "dir-1")
	require.NoError(t, err)
	require.Equal(t, "Alice", u.Name)

	_, err = p.Lookup(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	// Idempotent reads survive one transport failure.
	u, err = p.Lookup(ctx, "flaky")
	require.NoError(t, err)
	require.Equal(t, "Alice", u.Name)
}
