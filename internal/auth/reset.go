package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// ResetSecretBytes is the entropy of a reset secret: 256 bits, encoded as
// 43 URL-safe base64 characters.
const ResetSecretBytes = 32

// GenerateResetSecret returns a random URL-safe secret for the user and the
// hash to store in place of it.
func GenerateResetSecret() (secret, hash string, err error) {
	b := make([]byte, ResetSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate reset secret: %w", err)
	}

	secret = base64.RawURLEncoding.EncodeToString(b)
	return secret, HashResetSecret(secret), nil
}

func HashResetSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifyResetSecret compares secret against a stored hash in constant time.
func VerifyResetSecret(secret, hash string) bool {
	if secret == "" || hash == "" {
		return false
	}
	computed := HashResetSecret(secret)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
