// Package hash provides the digest primitives used for ledger commitments.
//
// Business code depends on the Hash interface, not on a concrete algorithm.
// Keccak-256 is the default commitment algorithm; SHA-256 is available as an
// alternative driver. Both are plain (unkeyed) cryptographic digests over a
// byte string.
package hash
