package httpx

import "net/http"

// RequireAnyRole enforces that the authenticated role is one of allowed.
// An anonymous request is 401; an authenticated request with the wrong
// role is 403. The two must never collapse: 401 tells the client to
// authenticate, 403 tells it not to bother.
func RequireAnyRole(allowed ...string) Middleware {
	want := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		want[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromCtx(r.Context())
			if role == "" {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}
			if _, ok := want[role]; !ok {
				WriteError(w, http.StatusForbidden, "forbidden", "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
