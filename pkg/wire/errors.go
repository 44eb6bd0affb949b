// Package wire implements the ELARA frame codec: a fixed 30-byte header,
// optional TLV extensions, an AEAD ciphertext payload and a 16-byte
// authentication tag.
package wire

import (
	"errors"
	"fmt"
)

// ErrInvalidWireFormat covers every structural parse failure: unsupported
// version, unknown class/profile, a set RESERVED flag bit, an extension
// length that overshoots the buffer, or a residual buffer shorter than the
// auth tag.
var ErrInvalidWireFormat = errors.New("wire: invalid wire format")

// ErrFrameTooLarge is returned by Serialize when the encoded frame would
// exceed MaxFrameSize.
var ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")

// BufferTooShortError reports a parse attempt against a buffer shorter than
// the fixed header.
type BufferTooShortError struct {
	Expected int
	Actual   int
}

func (e *BufferTooShortError) Error() string {
	return fmt.Sprintf("wire: buffer too short: expected %d, got %d", e.Expected, e.Actual)
}

// NewBufferTooShortError constructs a BufferTooShortError.
func NewBufferTooShortError(expected, actual int) error {
	return &BufferTooShortError{Expected: expected, Actual: actual}
}
