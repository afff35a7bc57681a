package hash

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// AlgorithmKeccak256 selects the legacy Keccak-256 digest.
	AlgorithmKeccak256 = "keccak256"
	// AlgorithmSHA256 selects the SHA-256 digest.
	AlgorithmSHA256 = "sha256"
)

// ErrUnknownAlgorithm indicates an unsupported digest algorithm name.
var ErrUnknownAlgorithm = errors.New("hash: unknown algorithm")

// Hash computes a deterministic digest over a byte string.
type Hash interface {
	// Sum returns the digest of str.
	Sum(str string) []byte

	// Verify reports whether digest equals the digest of str.
	Verify(digest []byte, str string) bool
}

// NewFromAlgorithm constructs a Hash implementation by algorithm name.
// An empty name defaults to Keccak-256.
func NewFromAlgorithm(algorithm string) (Hash, error) {
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", AlgorithmKeccak256:
		return NewKeccak256(), nil
	case AlgorithmSHA256:
		return NewSHA256(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, algorithm)
	}
}
