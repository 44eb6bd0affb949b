package wire

import "encoding/binary"

// HeaderSize is the fixed frame header size in bytes.
const HeaderSize = 30

// Header is the fixed 30-byte frame header, always network (big-endian)
// byte order on the wire.
type Header struct {
	Version         uint8
	Class           Class
	Profile         Profile
	Flags           Flags
	SessionID       uint64
	NodeID          uint64
	Seq             uint32
	TimeHint        uint32 // low 32 bits of StateTime ms
	ExtensionLength uint16 // bytes of TLV extensions that follow, 0 if none
}

// Encode serializes the fixed header to exactly HeaderSize bytes.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = h.Version
	buf[1] = uint8(h.Class)
	buf[2] = uint8(h.Profile)
	buf[3] = uint8(h.Flags)
	binary.BigEndian.PutUint64(buf[4:12], h.SessionID)
	binary.BigEndian.PutUint64(buf[12:20], h.NodeID)
	binary.BigEndian.PutUint32(buf[20:24], h.Seq)
	binary.BigEndian.PutUint32(buf[24:28], h.TimeHint)
	binary.BigEndian.PutUint16(buf[28:30], h.ExtensionLength)
	return buf
}

// DecodeHeader parses the fixed header from the front of data.
//
// Fails with BufferTooShortError if data is shorter than HeaderSize, and
// with ErrInvalidWireFormat if the version is unsupported, the class or
// profile is unrecognized, or the RESERVED flag bit is set.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, NewBufferTooShortError(HeaderSize, len(data))
	}

	h := Header{
		Version:         data[0],
		Class:           Class(data[1]),
		Profile:         Profile(data[2]),
		Flags:           Flags(data[3]),
		SessionID:       binary.BigEndian.Uint64(data[4:12]),
		NodeID:          binary.BigEndian.Uint64(data[12:20]),
		Seq:             binary.BigEndian.Uint32(data[20:24]),
		TimeHint:        binary.BigEndian.Uint32(data[24:28]),
		ExtensionLength: binary.BigEndian.Uint16(data[28:30]),
	}

	if h.Version != Version {
		return Header{}, ErrInvalidWireFormat
	}
	if !h.Class.IsValid() || !h.Profile.IsValid() {
		return Header{}, ErrInvalidWireFormat
	}
	if h.Flags.Has(FlagReserved) {
		return Header{}, ErrInvalidWireFormat
	}

	return h, nil
}
