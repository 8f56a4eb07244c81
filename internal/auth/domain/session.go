package domain

import "time"

// Session is a server-held credential record referenced by an opaque id
// delivered to the client as a cookie. Removed on logout or expiry sweep.
type Session struct {
	ID        string
	UserID    string
	Role      Role
	CSRFToken string // double-submit anti-forgery secret, delivered in a non-HttpOnly cookie
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its lifetime at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
