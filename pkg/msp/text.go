// Package msp implements the Minimal Survival Profile: convenience
// constructors over pkg/state's generic mutation ops for the two baseline
// application profiles — profile:textual (chat, presence, typing) and
// profile:voice-minimal (parametric voice state). A profile is just a
// convention for which StateType values mean what and how their mutations
// are shaped; the state engine itself is profile-agnostic.
package msp

import (
	"github.com/rafaelsistems/elara/pkg/id"
	"github.com/rafaelsistems/elara/pkg/state"
)

// StateType values reserved for profile:textual.
const (
	// TextChatStateType is an append-only chat transcript.
	TextChatStateType uint8 = 0x01
	// TextPresenceStateType carries a short free-text presence status.
	TextPresenceStateType uint8 = 0x02
	// TextTypingStateType is a single byte: 1 while the source is
	// actively composing, 0 once it stops or sends.
	TextTypingStateType uint8 = 0x03
)

// ChatMessage builds an Append event carrying a chat transcript line.
func ChatMessage(source id.NodeId, instance uint16, seq uint32, versionRef id.VersionVector, timeIntent id.StateTime, text string) state.Event {
	return state.Event{
		ID:          id.EventId{Source: source, Seq: seq},
		Source:      source,
		TargetState: id.StateId{StateType: TextChatStateType, Instance: instance},
		VersionRef:  versionRef,
		TimeIntent:  timeIntent,
		Mutation:    state.MutationOp{Kind: state.MutationAppend, AppendValue: []byte(text)},
		EntropyHint: uint32(len(text)),
	}
}

// PresenceStatus builds a Set event updating a node's free-text presence
// status (e.g. "away", "in a call"). Keyed by the node's own id so multiple
// participants' statuses coexist in the same field.
func PresenceStatus(source id.NodeId, instance uint16, seq uint32, versionRef id.VersionVector, timeIntent id.StateTime, status string) state.Event {
	return state.Event{
		ID:          id.EventId{Source: source, Seq: seq},
		Source:      source,
		TargetState: id.StateId{StateType: TextPresenceStateType, Instance: instance},
		VersionRef:  versionRef,
		TimeIntent:  timeIntent,
		Mutation: state.MutationOp{
			Kind:     state.MutationSet,
			SetKey:   source.String(),
			SetValue: []byte(status),
		},
	}
}

// TypingIndicator builds a Set event flagging whether source is currently
// composing a message.
func TypingIndicator(source id.NodeId, instance uint16, seq uint32, versionRef id.VersionVector, timeIntent id.StateTime, typing bool) state.Event {
	value := []byte{0}
	if typing {
		value[0] = 1
	}
	return state.Event{
		ID:          id.EventId{Source: source, Seq: seq},
		Source:      source,
		TargetState: id.StateId{StateType: TextTypingStateType, Instance: instance},
		VersionRef:  versionRef,
		TimeIntent:  timeIntent,
		Mutation: state.MutationOp{
			Kind:     state.MutationSet,
			SetKey:   source.String(),
			SetValue: value,
		},
	}
}

// IsTyping decodes a typing indicator value as produced by TypingIndicator.
func IsTyping(value []byte) bool {
	return len(value) > 0 && value[0] != 0
}
