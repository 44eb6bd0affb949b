package node

import (
	"encoding/binary"
	"fmt"

	"github.com/rafaelsistems/elara/pkg/id"
	"github.com/rafaelsistems/elara/pkg/state"
)

// encodeEvent serializes a state.Event to the bytes carried as a frame's
// AEAD plaintext. This is the wire shape for event payloads — distinct from
// the domain payload codecs (voice/visual parameter extraction) the
// encompassing system scopes out, since an event's envelope (id, version
// vector, mutation, authority proof) is core protocol content, not a
// media-specific encoding.
func encodeEvent(e state.Event) []byte {
	buf := make([]byte, 0, 128)
	buf = appendUint32(buf, e.ID.Seq)
	buf = appendUint64(buf, uint64(e.Source))
	buf = append(buf, e.TargetState.StateType)
	buf = appendUint16(buf, e.TargetState.Instance)

	buf = appendUint16(buf, uint16(len(e.VersionRef)))
	for node, seq := range e.VersionRef {
		buf = appendUint64(buf, uint64(node))
		buf = appendUint64(buf, seq)
	}

	buf = append(buf, byte(e.Mutation.Kind))
	switch e.Mutation.Kind {
	case state.MutationAppend:
		buf = appendBytes32(buf, e.Mutation.AppendValue)
	case state.MutationSet:
		buf = appendBytes16(buf, []byte(e.Mutation.SetKey))
		buf = appendBytes32(buf, e.Mutation.SetValue)
	case state.MutationReplace:
		buf = appendBytes32(buf, e.Mutation.ReplaceValue)
	case state.MutationPatch:
		buf = appendUint32(buf, uint32(e.Mutation.PatchStart))
		buf = appendUint32(buf, uint32(e.Mutation.PatchEnd))
		buf = appendBytes32(buf, e.Mutation.PatchBytes)
	}

	buf = appendUint64(buf, uint64(e.TimeIntent))
	buf = appendUint32(buf, e.EntropyHint)
	buf = appendBytes16(buf, e.AuthorityProof)
	return buf
}

// decodeEvent parses the bytes produced by encodeEvent. The session id is
// not part of these bytes; it is known from the enclosing frame header.
func decodeEvent(buf []byte) (state.Event, error) {
	var e state.Event
	r := &reader{buf: buf}

	e.ID.Seq = r.uint32()
	e.Source = id.NodeId(r.uint64())
	e.TargetState.StateType = r.byte()
	e.TargetState.Instance = r.uint16()
	e.ID.Source = e.Source

	vvCount := r.uint16()
	e.VersionRef = id.NewVersionVector()
	for i := 0; i < int(vvCount); i++ {
		node := id.NodeId(r.uint64())
		seq := r.uint64()
		e.VersionRef = e.VersionRef.Increment(node, seq)
	}

	e.Mutation.Kind = state.MutationKind(r.byte())
	switch e.Mutation.Kind {
	case state.MutationAppend:
		e.Mutation.AppendValue = r.bytes32()
	case state.MutationSet:
		e.Mutation.SetKey = string(r.bytes16())
		e.Mutation.SetValue = r.bytes32()
	case state.MutationReplace:
		e.Mutation.ReplaceValue = r.bytes32()
	case state.MutationPatch:
		e.Mutation.PatchStart = int(r.uint32())
		e.Mutation.PatchEnd = int(r.uint32())
		e.Mutation.PatchBytes = r.bytes32()
	default:
		return state.Event{}, fmt.Errorf("node: decode event: %w", ErrMalformedEventPayload)
	}

	e.TimeIntent = id.StateTime(r.uint64())
	e.EntropyHint = r.uint32()
	e.AuthorityProof = r.bytes16()

	if r.err != nil {
		return state.Event{}, fmt.Errorf("node: decode event: %w", r.err)
	}
	return e, nil
}

func appendUint16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func appendBytes16(buf, data []byte) []byte {
	buf = appendUint16(buf, uint16(len(data)))
	return append(buf, data...)
}

func appendBytes32(buf, data []byte) []byte {
	buf = appendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

// reader walks buf sequentially, latching the first short-read error so
// call sites can chain reads without checking after every step.
type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.buf) {
		r.err = ErrMalformedEventPayload
		return false
	}
	return true
}

func (r *reader) byte() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *reader) uint16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) uint32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) uint64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

func (r *reader) bytes16() []byte {
	n := int(r.uint16())
	if !r.need(n) {
		return nil
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out
}

func (r *reader) bytes32() []byte {
	n := int(r.uint32())
	if n < 0 || !r.need(n) {
		return nil
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out
}
