package cryptox

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize128 provides 128 bits of entropy (22 chars base64url).
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	TokenSize256 = 32
)

// ErrNoSecret reports a missing fingerprint secret. Fingerprinting without
// a secret would let anyone with database access forge lookups, so this is
// a hard configuration failure rather than a degraded mode.
var ErrNoSecret = errors.New("cryptox: fingerprint secret is not configured")

// GenerateToken creates a cryptographically secure random token of the
// given byte length, encoded base64url without padding.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// MustGenerateToken is like GenerateToken but panics on error. Use only
// during initialization where failure is unrecoverable.
func MustGenerateToken(size int) string {
	token, err := GenerateToken(size)
	if err != nil {
		panic(fmt.Sprintf("cryptox: failed to generate token: %v", err))
	}
	return token
}

// FingerprintToken returns the keyed HMAC-SHA256 fingerprint of a token,
// hex encoded. Records store only the fingerprint, never the token itself,
// so lookups work without keeping secret material at rest.
//
// Rotating the secret invalidates every previously issued token: their
// fingerprints will no longer match anything in storage. Treat the secret
// as long-lived operational configuration.
func FingerprintToken(token, secret string) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil)), nil
}
