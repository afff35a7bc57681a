package hash

import (
	"crypto/subtle"

	"golang.org/x/crypto/sha3"
)

// Keccak256 implements Hash using the original (pre-NIST) Keccak-256.
//
// This is the Keccak variant used by most blockchain runtimes, which differs
// from the standardized SHA3-256 in its padding byte.
type Keccak256 struct{}

// NewKeccak256 creates a Keccak-256 hasher.
func NewKeccak256() *Keccak256 {
	return &Keccak256{}
}

// Sum returns the 32-byte Keccak-256 digest of the input string.
func (*Keccak256) Sum(str string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(str))
	return h.Sum(nil)
}

// Verify checks whether str digests to the given value.
func (k *Keccak256) Verify(digest []byte, str string) bool {
	return subtle.ConstantTimeCompare(digest, k.Sum(str)) == 1
}
