package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingAdminKey = errors.New("admin key required")
	ErrInvalidAdminKey = errors.New("invalid admin key")
)

// AdminKeyHeader carries the key that unlocks the global debt summaries.
const AdminKeyHeader = "X-Admin-Key"

// AdminKeyVerifier checks admin keys against a bcrypt hash.
// A verifier with an empty hash accepts every request.
type AdminKeyVerifier struct {
	hash []byte
}

// NewAdminKeyVerifier creates a verifier for the given bcrypt hash.
func NewAdminKeyVerifier(hash string) *AdminKeyVerifier {
	return &AdminKeyVerifier{hash: []byte(hash)}
}

// Enabled reports whether a hash is configured.
func (v *AdminKeyVerifier) Enabled() bool {
	return v != nil && len(v.hash) > 0
}

// Verify checks key against the configured hash.
func (v *AdminKeyVerifier) Verify(key string) error {
	if !v.Enabled() {
		return nil
	}
	if key == "" {
		return ErrMissingAdminKey
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(key)); err != nil {
		return ErrInvalidAdminKey
	}
	return nil
}

// HashAdminKey returns the bcrypt hash to put in auth.admin_key_hash.
func HashAdminKey(key string) (string, error) {
	if len(key) < 16 {
		return "", errors.New("admin key must be at least 16 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash admin key: %w", err)
	}
	return string(hashed), nil
}
