package utils // helpers shared across packages: hashing and token generation

import (
	"crypto/rand"   // secure random source for session tokens
	"encoding/hex"  // hex rendering of the random bytes
)

// RandomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data. Session tokens use n = 16,
// giving 128 bits of entropy rendered as 32 hex characters.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
