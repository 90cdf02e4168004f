package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltBytes = 16
	kdfIter   = 4096
	digestLen = 32
)

// HashPassword derives a salted digest for storage. The result has the
// form "salt$digest" with both halves hex encoded; the salt is freshly
// random on every call so identical passwords never share a digest.
func HashPassword(plain string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	digest := pbkdf2.Key([]byte(plain), salt, kdfIter, digestLen, sha256.New)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(digest), nil
}

// VerifyPassword recomputes the digest with the salt taken from the stored
// value and compares. A stored value missing the "$" separator or holding
// bad hex counts as a mismatch, never an error.
func VerifyPassword(stored, plain string) bool {
	saltHex, digestHex, ok := strings.Cut(stored, "$")
	if !ok {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(digestHex)
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(plain), salt, kdfIter, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
