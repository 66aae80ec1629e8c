// Package auth implements the credential store and the session/identity
// manager: password hashing, opaque session tokens, and server-side
// derivation of the admin flag.
package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced at registration.
const MinPasswordLength = 8

// HashPassword returns a bcrypt hash of the plaintext password. bcrypt
// embeds a fresh random salt per call, so hashing the same password twice
// yields distinct credentials.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether candidate matches the stored bcrypt hash.
// The comparison is constant-time with respect to the hash contents.
func CheckPassword(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
