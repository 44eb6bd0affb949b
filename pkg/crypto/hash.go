// Package crypto provides the cryptographic engine for the ELARA protocol:
// Ed25519 identity, ChaCha20-Poly1305 AEAD, ratchet key schedule and replay
// protection.
package crypto

import (
	"crypto/sha256"
	"hash"
)

// SHA-256 output sizes.
const (
	SHA256LenBits  = 256
	SHA256LenBytes = 32
)

// SHA256 computes the SHA-256 hash of a message.
//
// Returns a 32-byte (256-bit) hash digest.
func SHA256(message []byte) [SHA256LenBytes]byte {
	return sha256.Sum256(message)
}

// SHA256Slice computes the SHA-256 hash and returns it as a slice.
// This is a convenience function for cases where a slice is preferred.
func SHA256Slice(message []byte) []byte {
	h := sha256.Sum256(message)
	return h[:]
}

// NewSHA256 returns a new hash.Hash for computing SHA-256 digests incrementally.
// This is useful for hashing large data or streaming data.
//
// Usage:
//
//	h := crypto.NewSHA256()
//	h.Write(data1)
//	h.Write(data2)
//	digest := h.Sum(nil)
func NewSHA256() hash.Hash {
	return sha256.New()
}
