package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hash computes the content-addressed identity of a value per spec.md
// §4.1/§4.2: the SHA-256 hex digest of its canonical serialization. Two
// equal values always share a hash (hash-addressing invariant, spec.md
// §8: put(v) == hash(canonicalize(v))).
func Hash(v Value) (string, error) {
	data, err := Canonicalize(v)
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return HashBytes(data), nil
}

// HashBytes computes the SHA-256 hex digest of already-canonicalized bytes.
// Exposed separately so the content store can hash without re-marshaling
// when it already holds the canonical bytes.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MustHash is like Hash but panics on error. Use only in tests or when the
// input is known to be within the canonicalizable value set.
func MustHash(v Value) string {
	h, err := Hash(v)
	if err != nil {
		panic(err)
	}
	return h
}
