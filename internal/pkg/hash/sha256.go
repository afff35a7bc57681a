package hash

import (
	"crypto/sha256"
	"crypto/subtle"
)

// SHA256 implements Hash using SHA-256.
type SHA256 struct{}

// NewSHA256 creates a SHA-256 hasher.
func NewSHA256() *SHA256 {
	return &SHA256{}
}

// Sum returns the 32-byte SHA-256 digest of the input string.
func (*SHA256) Sum(str string) []byte {
	sum := sha256.Sum256([]byte(str))
	return sum[:]
}

// Verify checks whether str digests to the given value.
func (s *SHA256) Verify(digest []byte, str string) bool {
	return subtle.ConstantTimeCompare(digest, s.Sum(str)) == 1
}
