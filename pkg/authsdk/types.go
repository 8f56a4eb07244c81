package authsdk

import "time"

// ErrorResponse is the standard error payload returned by every endpoint.
type ErrorResponse struct {
	// Error is a stable machine-readable code (e.g. "invalid_request").
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error.
	ErrorDescription string `json:"error_description"`
}

// ValidationErrorResponse carries field-level validation failures.
type ValidationErrorResponse struct {
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description"`
	Details          map[string]string `json:"details,omitempty"`
}

// InviteCreateRequest mints a new invite. Role defaults to "member" and
// TTLSeconds to 72 hours when omitted. An omitted email leaves the invite
// unbound, redeemable by any address.
type InviteCreateRequest struct {
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Role       string `json:"role,omitempty" validate:"omitempty,oneof=member admin owner"`
	TTLSeconds int64  `json:"ttl_seconds,omitempty" validate:"omitempty,gt=0"`
}

// InviteCreateResponse returns the raw invite token. This is the only time
// the token is ever visible; the service keeps only a fingerprint.
type InviteCreateResponse struct {
	InviteToken string    `json:"invite_token"`
	InviteID    string    `json:"invite_id"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// InviteValidateRequest checks a token without consuming it. The email is
// optional; when present it is checked against the invite's binding.
type InviteValidateRequest struct {
	InviteToken string `json:"invite_token" validate:"required"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
}

// InviteValidateResponse reports redeemability. Email, Role and ExpiresAt
// are only present for valid tokens; invalid tokens reveal nothing,
// including why they are invalid.
type InviteValidateResponse struct {
	Valid     bool      `json:"valid"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// InviteSummary is the redacted administrative view of an invite. Raw
// tokens are not recoverable from it.
type InviteSummary struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	Used      bool       `json:"used"`
	UsedBy    string     `json:"used_by,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	Revoked   bool       `json:"revoked"`
}

// InviteListResponse wraps the administrative listing.
type InviteListResponse struct {
	Invites []InviteSummary `json:"invites"`
}

// InviteCleanupResponse reports how many expired invites were removed.
type InviteCleanupResponse struct {
	Removed int64 `json:"removed"`
}

// RegisterRequest redeems an invite and creates the account. The granted
// role comes from the invite; there is no role field here on purpose.
type RegisterRequest struct {
	InviteToken string `json:"invite_token" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Name        string `json:"name" validate:"required,max=128"`
	Password    string `json:"password" validate:"required,min=8,max=512"`
}

// UserResponse is the public account view.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginRequest authenticates with a password. The identifier is either the
// account email or its display name.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// LoginResponse carries the stateless credential in the body. The stateful
// credential arrives as the session cookie alongside a CSRF cookie.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}

// HealthChecks itemizes dependency probes for readiness.
type HealthChecks struct {
	Database string `json:"database"`
	Sessions string `json:"sessions"`
}

// HealthResponse is returned by the livez and readyz endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
