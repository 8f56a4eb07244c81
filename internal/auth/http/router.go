// Package http wires the service layer to the HTTP surface: invite
// management, registration, login and the health probes.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bmteam/authgate/internal/auth/domain"
	"github.com/bmteam/authgate/internal/auth/service"
	"github.com/bmteam/authgate/internal/auth/session"
	"github.com/bmteam/authgate/internal/auth/store"
	"github.com/bmteam/authgate/pkg/httpx"
	"github.com/bmteam/authgate/pkg/jwtx"
	"github.com/bmteam/authgate/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	sessions session.Store

	AuthService    *service.AuthService
	InviteService  *service.InviteService
	SessionService *service.SessionService

	// CookieSecure controls the Secure attribute on issued cookies. Leave
	// on outside local development.
	CookieSecure bool
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	sessions session.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		sessions:     sessions,
		logger:       logger,
		CookieSecure: true,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerInvites()
	r.registerAuth()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// inviteIssuerRoles enumerates the roles allowed to manage invites, so the
// route guards stay in lockstep with the domain rule.
func inviteIssuerRoles() []string {
	var roles []string
	for _, role := range []domain.Role{domain.RoleMember, domain.RoleAdmin, domain.RoleOwner} {
		if role.CanIssueInvites() {
			roles = append(roles, role.String())
		}
	}
	return roles
}

func (r *Router) registerInvites() {
	adminOnly := []httpx.Middleware{
		r.Authenticate,
		httpx.RequireAnyRole(inviteIssuerRoles()...),
	}

	createHandler := &InviteCreateHandler{InviteService: r.InviteService}
	r.Mux.Handle("POST /v1/invites",
		httpx.Chain(createHandler,
			append(adminOnly, httpx.RateLimitByUser(httpx.ModerateLimit))...,
		),
	)

	listHandler := &InviteListHandler{InviteService: r.InviteService}
	r.Mux.Handle("GET /v1/invites",
		httpx.Chain(listHandler, adminOnly...),
	)

	revokeHandler := &InviteRevokeHandler{InviteService: r.InviteService}
	r.Mux.Handle("DELETE /v1/invites/{id}",
		httpx.Chain(revokeHandler, adminOnly...),
	)

	cleanupHandler := &InviteCleanupHandler{InviteService: r.InviteService}
	r.Mux.Handle("POST /v1/invites/cleanup",
		httpx.Chain(cleanupHandler, adminOnly...),
	)

	// Validation is public: prospective users hold only the raw token.
	validateHandler := &InviteValidateHandler{InviteService: r.InviteService}
	r.Mux.Handle("POST /v1/invites/validate",
		httpx.Chain(validateHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAuth() {
	registerHandler := &RegisterHandler{AuthService: r.AuthService, CookieSecure: r.CookieSecure}
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	loginHandler := &LoginHandler{AuthService: r.AuthService, CookieSecure: r.CookieSecure}
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	logoutHandler := &LogoutHandler{AuthService: r.AuthService, CookieSecure: r.CookieSecure}
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(logoutHandler, r.Authenticate),
	)

	meHandler := &MeHandler{AuthService: r.AuthService}
	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(meHandler, r.Authenticate),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.sessions))
}
