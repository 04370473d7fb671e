// Package auth provides the customer-facing primitives the API surface
// needs but the matching engine never touches: password hashing and opaque
// API key generation. The matching engine itself has no concept of
// authentication.
package auth

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash of a plaintext password for storage
// as Customer.PasswordHash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewAPIKey generates a fresh opaque API key for a new customer.
func NewAPIKey() string {
	return uuid.NewString()
}
