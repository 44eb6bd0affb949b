// Nonce construction for the ELARA secure frame processor.
package crypto

import (
	"encoding/binary"
	"errors"
)

// ChaCha20-Poly1305 uses a 12-byte nonce and produces a 16-byte auth tag.
const (
	NonceSize        = 12
	SymmetricKeySize = 32
	TagSize          = 16
)

var ErrInvalidKeySize = errors.New("crypto: invalid key size, must be 32 bytes")

// BuildFrameNonce constructs the 12-byte AEAD nonce for a frame.
//
// nonce = (session_id ⊕ node_id ⊕ seq) || ratchet_epoch.
// The xor folds the 8-byte session and node ids down to 8 bytes, the 4-byte
// packet sequence is mixed into the low 4 bytes of that fold, and the
// ratchet epoch fills the remaining 4 bytes so that frames encrypted under
// different epochs never share a nonce even if seq repeats after a reset.
func BuildFrameNonce(sessionID, nodeID uint64, seq uint32, epoch uint32) []byte {
	folded := sessionID ^ nodeID
	var foldedBytes [8]byte
	binary.LittleEndian.PutUint64(foldedBytes[:], folded)

	var seqBytes [4]byte
	binary.LittleEndian.PutUint32(seqBytes[:], seq)
	for i := range seqBytes {
		foldedBytes[i] ^= seqBytes[i]
	}

	nonce := make([]byte, NonceSize)
	copy(nonce[:8], foldedBytes[:])
	binary.LittleEndian.PutUint32(nonce[8:12], epoch)
	return nonce
}
