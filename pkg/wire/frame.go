package wire

// MaxFrameSize is the default MTU-safe cap on total serialized frame size
// (default 1200 bytes to fit common MTU without IP
// fragmentation"). Configurable via config.Config.MaxFrameSize.
const MaxFrameSize = 1200

// AuthTagSize is the ChaCha20-Poly1305 authentication tag length.
const AuthTagSize = 16

// Frame is a complete, immutable-once-built ELARA wire frame. The AEAD tag
// covers Header.Encode() plus the canonical extension bytes as associated
// data.
type Frame struct {
	Header     Header
	Extensions []Extension
	Ciphertext []byte // includes the trailing AuthTagSize-byte tag
}

// AAD returns the bytes authenticated as associated data: the fixed header
// followed by the canonically-ordered extension TLVs.
func (f Frame) AAD() []byte {
	aad := f.Header.Encode()
	return append(aad, encodeExtensions(f.Extensions)...)
}

// Serialize builds the wire bytes for this frame, setting Header.Flags'
// EXTENSION bit and Header.ExtensionLength to match f.Extensions.
func (f Frame) Serialize(maxFrameSize int) ([]byte, error) {
	extBytes := encodeExtensions(f.Extensions)

	h := f.Header
	h.ExtensionLength = uint16(len(extBytes))
	h.Flags = h.Flags.With(FlagExtension, len(extBytes) > 0)

	headerBytes := h.Encode()

	total := len(headerBytes) + len(extBytes) + len(f.Ciphertext)
	if maxFrameSize > 0 && total > maxFrameSize {
		return nil, ErrFrameTooLarge
	}

	buf := make([]byte, 0, total)
	buf = append(buf, headerBytes...)
	buf = append(buf, extBytes...)
	buf = append(buf, f.Ciphertext...)
	return buf, nil
}

// Parse decodes a Frame from raw bytes.
//
// Fails with ErrInvalidWireFormat when the declared extension_length
// overshoots the buffer, or when the bytes remaining after the header and
// extensions are smaller than AuthTagSize; fails with BufferTooShortError
// when data is shorter than the fixed header.
func Parse(data []byte) (Frame, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return Frame{}, err
	}

	rest := data[HeaderSize:]
	var exts []Extension
	extLen := int(h.ExtensionLength)
	if h.Flags.Has(FlagExtension) || extLen > 0 {
		if extLen > len(rest) {
			return Frame{}, ErrInvalidWireFormat
		}
		exts, err = decodeExtensions(rest, extLen)
		if err != nil {
			return Frame{}, err
		}
		rest = rest[extLen:]
	}

	if len(rest) < AuthTagSize {
		return Frame{}, ErrInvalidWireFormat
	}

	ciphertext := make([]byte, len(rest))
	copy(ciphertext, rest)

	return Frame{Header: h, Extensions: exts, Ciphertext: ciphertext}, nil
}
