package domain

// Role is the fixed set of roles an invite can grant and a user can hold.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// Valid reports whether r is one of the enumerated roles. Anything else
// (including "" and "superuser") is rejected at invite creation.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleAdmin, RoleOwner:
		return true
	}
	return false
}

// CanIssueInvites reports whether a holder of r may mint, list, revoke,
// or clean up invite tokens.
func (r Role) CanIssueInvites() bool {
	return r == RoleAdmin || r == RoleOwner
}

func (r Role) String() string { return string(r) }
