package textutil

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3 hex digest of a string. The journal stores it in
// place of translation values.
func Hash(s string) string {
	h := blake3.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// HashValue hashes an optional value. An absent value hashes to "".
func HashValue(v *string) string {
	if v == nil {
		return ""
	}
	return Hash(*v)
}

// Truncate shortens a string to maxLen runes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
