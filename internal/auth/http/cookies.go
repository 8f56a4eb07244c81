package http

import (
	"net/http"
	"time"

	"github.com/bmteam/authgate/internal/auth/domain"
	"github.com/bmteam/authgate/pkg/authsdk"
)

// setSessionCookies installs the credential pair: the HttpOnly session
// cookie and the script-readable CSRF cookie for the double-submit check.
func setSessionCookies(w http.ResponseWriter, sess domain.Session, secure bool) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())

	http.SetCookie(w, &http.Cookie{
		Name:     authsdk.SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     authsdk.CSRFCookieName,
		Value:    sess.CSRFToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookies(w http.ResponseWriter, secure bool) {
	for _, name := range []string{authsdk.SessionCookieName, authsdk.CSRFCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: name == authsdk.SessionCookieName,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
