package msp

import (
	"encoding/binary"
	"math"

	"github.com/rafaelsistems/elara/pkg/id"
	"github.com/rafaelsistems/elara/pkg/state"
)

// VoiceStateType is the single StateType reserved for profile:voice-minimal:
// a parametric summary of a participant's voice activity, not encoded audio.
const VoiceStateType uint8 = 0x10

// VoiceParams is a parametric snapshot of a participant's voice state:
// coarse enough to convey presence and affect without carrying audio.
type VoiceParams struct {
	// Voiced reports whether the source is currently vocalizing.
	Voiced bool
	// Energy is normalized loudness in [0,1].
	Energy float32
	// PitchHz is the estimated fundamental frequency, 0 if unvoiced.
	PitchHz float32
}

// voiceParamsSize is the encoded wire size of VoiceParams: 1 flag byte + two
// float32s.
const voiceParamsSize = 1 + 4 + 4

// Encode serializes p to its fixed-size wire representation.
func (p VoiceParams) Encode() []byte {
	buf := make([]byte, voiceParamsSize)
	if p.Voiced {
		buf[0] = 1
	}
	binary.BigEndian.PutUint32(buf[1:5], math.Float32bits(p.Energy))
	binary.BigEndian.PutUint32(buf[5:9], math.Float32bits(p.PitchHz))
	return buf
}

// DecodeVoiceParams parses the wire representation produced by Encode.
func DecodeVoiceParams(buf []byte) (VoiceParams, bool) {
	if len(buf) < voiceParamsSize {
		return VoiceParams{}, false
	}
	return VoiceParams{
		Voiced:  buf[0] != 0,
		Energy:  math.Float32frombits(binary.BigEndian.Uint32(buf[1:5])),
		PitchHz: math.Float32frombits(binary.BigEndian.Uint32(buf[5:9])),
	}, true
}

// VoiceUpdate builds a Replace event carrying a fresh voice parameter
// snapshot. Voice state is whole-value replaced rather than set/patched: a
// stale partial update (e.g. energy without pitch) is never meaningful on
// its own.
func VoiceUpdate(source id.NodeId, instance uint16, seq uint32, versionRef id.VersionVector, timeIntent id.StateTime, params VoiceParams) state.Event {
	return state.Event{
		ID:          id.EventId{Source: source, Seq: seq},
		Source:      source,
		TargetState: id.StateId{StateType: VoiceStateType, Instance: instance},
		VersionRef:  versionRef,
		TimeIntent:  timeIntent,
		Mutation:    state.MutationOp{Kind: state.MutationReplace, ReplaceValue: params.Encode()},
	}
}
