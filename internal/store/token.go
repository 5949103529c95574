package store

import (
	"crypto/rand"
	"encoding/hex"
)

const tokenRandomBytes = 18

// RandomToken generates a polling token for the given provider: the
// provider name followed by 36 hex characters. The prefix lets support
// staff spot which channel a leaked token belongs to.
func RandomToken(provider string) string {
	buf := make([]byte, tokenRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand.Read only fails when the OS entropy source is
		// broken, which is not a recoverable state.
		panic("store: reading random bytes: " + err.Error())
	}
	return provider + hex.EncodeToString(buf)
}

// RandomBetaCode generates a single-use invite code: 10 hex characters.
func RandomBetaCode() string {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		panic("store: reading random bytes: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
