// Package digest provides the text fingerprint used for answer checking and
// completion codes.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Size is the length of a hex-encoded digest.
const Size = sha256.Size * 2

// Normalize trims surrounding whitespace and lower-cases text.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Sum returns the lowercase hex SHA-256 of text, exactly as given.
func Sum(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Matches reports whether the normalized input hashes to expected. The
// comparison against expected is case-sensitive.
func Matches(input, expected string) bool {
	return Sum(Normalize(input)) == expected
}

// Valid reports whether s looks like a digest produced by Sum.
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') {
			return false
		}
	}
	return true
}
