// Package id defines the identifiers and small value types shared across the
// ELARA engine: node and session identity, state addressing, event
// identity, version vectors, presence vectors, and the degradation ladder.
// It sits at the bottom of the dependency graph — every other package
// imports it, it imports nothing of its own.
package id

import "fmt"

// NodeId uniquely identifies a participant, stable across sessions and
// transports.
type NodeId uint64

func (n NodeId) String() string { return fmt.Sprintf("%016x", uint64(n)) }

// SessionId identifies a key-sharing group. Session membership is finite;
// nodes may join or leave over the session's lifetime.
type SessionId uint64

func (s SessionId) String() string { return fmt.Sprintf("%016x", uint64(s)) }

// StateId identifies a single mutable datum (a text field, a voice stream, a
// visual scene) within a session. Authority is granted per StateId.
type StateId struct {
	StateType uint8
	Instance  uint16
}

func (s StateId) String() string {
	return fmt.Sprintf("state{type=%d,instance=%d}", s.StateType, s.Instance)
}

// EventId identifies a single event: the node that produced it and its
// sequence number within (source, session). Seq is monotonically
// non-decreasing per (source, session); gaps indicate loss.
type EventId struct {
	Source NodeId
	Seq    uint32
}

func (e EventId) String() string { return fmt.Sprintf("event{%s,seq=%d}", e.Source, e.Seq) }

// StateTime is an elastic timestamp (milliseconds) in the session's shared
// time domain, subject to correction by the time engine.
type StateTime int64

// PerceptualTime is a monotonic local timestamp (milliseconds). Never
// corrected backward.
type PerceptualTime int64
