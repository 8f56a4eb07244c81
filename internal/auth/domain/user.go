package domain

import (
	"strings"
	"time"
)

// User is an identity record. Email doubles as the login name and is
// unique case-insensitively.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string // argon2id PHC encoded; empty for federated identities
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FoldEmail canonicalizes an email for comparison and storage: trimmed
// and lowercased. All uniqueness checks go through this.
func FoldEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
