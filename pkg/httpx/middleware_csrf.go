package httpx

import (
	"crypto/subtle"
	"net/http"
)

// RequireCSRF enforces the double-submit anti-forgery check for
// state-mutating requests on cookie sessions: the token presented in the
// header must equal the one in the cookie. Comparison is constant-time.
// A missing token is a 403 rather than a 401, since the session itself
// may still be valid.
func RequireCSRF(cookieName, headerName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(headerName)
			cookie, err := r.Cookie(cookieName)
			if err != nil || header == "" ||
				subtle.ConstantTimeCompare([]byte(header), []byte(cookie.Value)) != 1 {
				WriteError(w, http.StatusForbidden, "forbidden", "Anti-forgery validation failed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
