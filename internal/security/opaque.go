package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// OpaqueTokenBytes is the entropy of verification and reset tokens (256 bits).
const OpaqueTokenBytes = 32

// NewOpaqueToken returns a random URL-safe token with no embedded meaning.
func NewOpaqueToken() (string, error) {
	raw := make([]byte, OpaqueTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// HashOpaqueToken is what gets stored and looked up; the raw token only
// travels to the user.
func HashOpaqueToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
