package store

import (
	"crypto/rand"
	"encoding/base64"
)

// NewToken returns a 256-bit URL-safe random token. The confirmation and
// unsubscribe tokens are generated independently so neither is derivable
// from the other or from the email.
func NewToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failure means the platform RNG is broken; nothing
		// sensible to return.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
