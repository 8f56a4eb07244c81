// Package jwtx signs and verifies the service's stateless credentials:
// compact HS256 JWTs carrying a subject and role.
package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the default lifetime for issued credentials. The original
// deployment used 12 hours; override per-service via configuration.
const DefaultTTL = 12 * time.Hour

// Claims are the credential claims used across the service. Keep changes
// additive to preserve compatibility for existing tokens.
type Claims struct {
	jwt.RegisteredClaims

	// Role granted to the subject ("member", "admin", "owner").
	Role string `json:"role,omitempty"`
}

// NewClaims builds minimally-correct claims for a subject at a role.
func NewClaims(subject, role, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Role: role,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
