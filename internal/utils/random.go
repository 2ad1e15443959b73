package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomToken returns a hex string backed by byteLen bytes of crypto/rand
// entropy. Share tokens use 24 bytes (192 bits), comfortably above the
// 128-bit floor for unguessable public URLs.
func RandomToken(byteLen int) string {
	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return hex.EncodeToString(b)
}
