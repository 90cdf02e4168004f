package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewSessionToken returns a cryptographically secure random token used as
// an opaque session identifier. 32 bytes of entropy encoded as 64 hex
// characters.
func NewSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
