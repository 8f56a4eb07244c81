package http

import (
	"context"
	"net/http"

	"github.com/bmteam/authgate/pkg/authsdk"
	"github.com/bmteam/authgate/pkg/httpx"
)

type sessionIDKey struct{}

// sessionIDFromCtx returns the opaque session ID when the request was
// authenticated via the session cookie.
func sessionIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}

// Authenticate accepts either credential form. Requests carrying an
// Authorization header go through the bearer middleware; otherwise the
// session cookie is resolved through the session store, and state-changing
// methods must also pass the CSRF double-submit check.
func (rt *Router) Authenticate(next http.Handler) http.Handler {
	bearer := httpx.BearerAuthMiddleware(rt.verifier)(next)
	csrfNext := httpx.RequireCSRF(authsdk.CSRFCookieName, authsdk.CSRFHeaderName)(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			bearer.ServeHTTP(w, r)
			return
		}
		rt.authenticateSession(next, csrfNext, w, r)
	})
}

func (rt *Router) authenticateSession(next, csrfNext http.Handler, w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(authsdk.SessionCookieName)
	if err != nil || cookie.Value == "" {
		writeUnauthorized(w)
		return
	}

	sess, err := rt.SessionService.Verify(r.Context(), cookie.Value)
	if err != nil {
		writeUnauthorized(w)
		return
	}

	ctx := httpx.WithIdentity(r.Context(), sess.UserID, string(sess.Role))
	ctx = context.WithValue(ctx, sessionIDKey{}, sess.ID)

	// The session is established first so a bad cookie stays a 401; only
	// authenticated state-changing requests reach the anti-forgery check.
	h := next
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h = csrfNext
	}
	h.ServeHTTP(w, r.WithContext(ctx))
}

func writeUnauthorized(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusUnauthorized, authsdk.ErrorResponse{
		Error:            authsdk.ErrorCodeUnauthorized,
		ErrorDescription: "authentication required",
	})
}
