package msp

import (
	"testing"

	"github.com/rafaelsistems/elara/pkg/id"
)

func TestChatMessage_AppendsTextBytes(t *testing.T) {
	ev := ChatMessage(id.NodeId(1), 0, 1, id.NewVersionVector(), id.StateTime(10), "hello")
	if ev.Mutation.Kind.String() != "Append" {
		t.Fatalf("expected Append mutation, got %v", ev.Mutation.Kind)
	}
	if string(ev.Mutation.AppendValue) != "hello" {
		t.Fatalf("expected appended text preserved, got %q", ev.Mutation.AppendValue)
	}
	if ev.TargetState.StateType != TextChatStateType {
		t.Fatalf("expected chat state type, got %d", ev.TargetState.StateType)
	}
}

func TestPresenceStatus_KeyedBySource(t *testing.T) {
	source := id.NodeId(42)
	ev := PresenceStatus(source, 0, 1, id.NewVersionVector(), id.StateTime(10), "away")
	if ev.Mutation.SetKey != source.String() {
		t.Fatalf("expected presence keyed by source id")
	}
	if string(ev.Mutation.SetValue) != "away" {
		t.Fatalf("expected status preserved, got %q", ev.Mutation.SetValue)
	}
}

func TestTypingIndicator_RoundTrips(t *testing.T) {
	on := TypingIndicator(id.NodeId(1), 0, 1, id.NewVersionVector(), id.StateTime(10), true)
	if !IsTyping(on.Mutation.SetValue) {
		t.Fatalf("expected typing=true to decode true")
	}
	off := TypingIndicator(id.NodeId(1), 0, 2, id.NewVersionVector(), id.StateTime(20), false)
	if IsTyping(off.Mutation.SetValue) {
		t.Fatalf("expected typing=false to decode false")
	}
}
