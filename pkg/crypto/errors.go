package crypto

import "errors"

// Crypto engine errors.
var (
	// ErrDecryptionFailed covers both AEAD tag mismatch and wrong key; the
	// two are deliberately indistinguishable to the caller.
	ErrDecryptionFailed = errors.New("crypto: decryption failed")

	// ErrReplayDetected is returned when a (source, seq) pair was already
	// admitted by the replay window.
	ErrReplayDetected = errors.New("crypto: replay detected")

	// ErrRatchetOutOfSync is returned when no retained epoch key can open
	// a frame's advertised key_epoch.
	ErrRatchetOutOfSync = errors.New("crypto: ratchet out of sync")

	// ErrInvalidSignature is returned when an authority proof signature
	// fails to verify.
	ErrInvalidSignature = errors.New("crypto: invalid signature")
)
