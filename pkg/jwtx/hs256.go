package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoSecret reports a missing signing secret. Refusing to start beats
	// silently issuing unsigned credentials.
	ErrNoSecret = errors.New("jwtx: signing secret is not configured")

	// ErrInvalidToken covers every verification failure: bad signature,
	// wrong algorithm, expired, malformed. Callers must not learn which.
	ErrInvalidToken = errors.New("jwtx: invalid token")
)

// Verifier validates a JWT and returns the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256 signs and verifies credentials with a single shared secret. The
// algorithm is pinned: tokens offering any other method (including "none")
// are rejected outright.
type HS256 struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewHS256 builds a signer/verifier from the shared secret. An empty
// secret is a configuration error, never a degraded mode.
func NewHS256(secret, issuer string) (*HS256, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &HS256{secret: []byte(secret), issuer: issuer, leeway: 30 * time.Second}, nil
}

// Issuer returns the configured "iss" value.
func (h *HS256) Issuer() string { return h.issuer }

// Sign produces a compact serialized token for the claims.
func (h *HS256) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify parses and validates a compact token. All failure modes collapse
// into ErrInvalidToken so the caller cannot distinguish bad-signature from
// expired from malformed.
func (h *HS256) Verify(raw string) (Claims, error) {
	var claims Claims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(h.leeway),
		jwt.WithExpirationRequired(),
	}
	if h.issuer != "" {
		opts = append(opts, jwt.WithIssuer(h.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
