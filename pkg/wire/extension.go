package wire

import (
	"encoding/binary"
	"sort"
)

// Recognized extension types. Unknown types are preserved as
// opaque bytes and forwarded unchanged, for forward compatibility.
const (
	ExtRatchetID      uint8 = 0
	ExtKeyEpoch       uint8 = 1
	ExtFragmentInfo   uint8 = 2
	ExtRepairRefs     uint8 = 3
	ExtTimePrecision  uint8 = 4
)

// extensionHeaderSize is the TLV header: type (1) + length (2).
const extensionHeaderSize = 3

// Extension is one `type: u8 | length: u16 | value: bytes` TLV entry.
type Extension struct {
	Type  uint8
	Value []byte
}

// sizeOf returns the encoded size of this extension including its header.
func (e Extension) sizeOf() int {
	return extensionHeaderSize + len(e.Value)
}

// encodeExtensions serializes extensions in canonical ascending-type order,
// so the bytes are deterministic for use as AEAD associated data.
func encodeExtensions(exts []Extension) []byte {
	ordered := make([]Extension, len(exts))
	copy(ordered, exts)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Type < ordered[j].Type })

	total := 0
	for _, e := range ordered {
		total += e.sizeOf()
	}

	buf := make([]byte, total)
	offset := 0
	for _, e := range ordered {
		buf[offset] = e.Type
		binary.BigEndian.PutUint16(buf[offset+1:offset+3], uint16(len(e.Value)))
		copy(buf[offset+3:], e.Value)
		offset += e.sizeOf()
	}
	return buf
}

// decodeExtensions parses a TLV extension list of the given total length
// from data. Returns ErrInvalidWireFormat if any entry's length overshoots
// the declared total.
func decodeExtensions(data []byte, totalLen int) ([]Extension, error) {
	if totalLen > len(data) {
		return nil, ErrInvalidWireFormat
	}
	region := data[:totalLen]

	var exts []Extension
	offset := 0
	for offset < len(region) {
		if offset+extensionHeaderSize > len(region) {
			return nil, ErrInvalidWireFormat
		}
		typ := region[offset]
		length := int(binary.BigEndian.Uint16(region[offset+1 : offset+3]))
		valueStart := offset + extensionHeaderSize
		valueEnd := valueStart + length
		if valueEnd > len(region) {
			return nil, ErrInvalidWireFormat
		}
		value := make([]byte, length)
		copy(value, region[valueStart:valueEnd])
		exts = append(exts, Extension{Type: typ, Value: value})
		offset = valueEnd
	}
	return exts, nil
}

// findExtension returns the first extension of the given type, if present.
func findExtension(exts []Extension, typ uint8) (Extension, bool) {
	for _, e := range exts {
		if e.Type == typ {
			return e, true
		}
	}
	return Extension{}, false
}
