package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// EncodedLen returns the length of a token with the given prefix and
// random byte count.
func EncodedLen(prefix string, n int) int {
	return len(prefix) + base64.RawURLEncoding.EncodedLen(n)
}

// Generate returns prefix followed by n random bytes, base64url encoded.
func Generate(prefix string, n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("token: invalid length %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("token: read random: %w", err)
	}
	return prefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// Valid reports whether s has the shape of a token from Generate(prefix, n).
func Valid(s, prefix string, n int) bool {
	if len(s) != EncodedLen(prefix, n) || !strings.HasPrefix(s, prefix) {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(s[len(prefix):])
	return err == nil
}

// Hash returns the hex SHA-256 of s.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Equal compares two tokens in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
