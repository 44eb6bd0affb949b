package crypto

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// SealChaCha20Poly1305 encrypts plaintext with the given 32-byte key and
// 12-byte nonce, authenticating aad alongside it. The returned ciphertext
// has the 16-byte tag appended, matching Go's cipher.AEAD.Seal convention.
func SealChaCha20Poly1305(key, nonce, plaintext, aad []byte) ([]byte, error) {
	if len(key) != SymmetricKeySize {
		return nil, ErrInvalidKeySize
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: init aead: %w", err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("crypto: nonce must be %d bytes", aead.NonceSize())
	}
	return aead.Seal(nil, nonce, plaintext, aad), nil
}

// OpenChaCha20Poly1305 decrypts and authenticates ciphertext. Returns
// ErrDecryptionFailed (never a more specific reason) on tag mismatch, so
// callers cannot distinguish wrong-key from tampering.
func OpenChaCha20Poly1305(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	if len(key) != SymmetricKeySize {
		return nil, ErrInvalidKeySize
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: init aead: %w", err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("crypto: nonce must be %d bytes", aead.NonceSize())
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
