package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SecretSize is the byte length of generated signing secrets and peppers.
const SecretSize = 32

// RandomSecret returns n bytes from crypto/rand.
func RandomSecret(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("cryptox: secret size must be positive, got %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("cryptox: read random: %w", err)
	}
	return buf, nil
}

// Fingerprint returns the first 12 hex characters of SHA-256(s). Logs carry
// it in place of a delivered token.
func Fingerprint(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:6])
}
