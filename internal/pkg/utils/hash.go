package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashString is used both for terms-of-service acceptance and for keying
// provider-side content caches, so it must stay stable across releases.
func HashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
