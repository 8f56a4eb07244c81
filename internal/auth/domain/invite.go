package domain

import "time"

// Invite is a single-use, time-limited registration token record. Only the
// keyed fingerprint of the token is stored; the plaintext exists exactly
// once, in the response to the creating caller.
type Invite struct {
	ID        string
	TokenHash string // keyed HMAC-SHA256 fingerprint, unique
	Email     string // optional binding; "" means any email may redeem
	Role      Role
	CreatedBy string // issuer subject id; "" for system-issued tokens
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time // nil until consumed; set once, never cleared
	UsedBy    string     // registrant identity, recorded at consumption
	Revoked   bool
}

// MatchesEmail reports whether the presented email satisfies the invite's
// binding. Unbound invites match anything; bound invites compare
// case-insensitively.
func (inv Invite) MatchesEmail(email string) bool {
	if inv.Email == "" {
		return true
	}
	return FoldEmail(inv.Email) == FoldEmail(email)
}
