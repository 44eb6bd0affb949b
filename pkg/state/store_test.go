package state

import (
	"testing"

	"github.com/rafaelsistems/elara/pkg/id"
)

func TestFieldStore_GetCreatesLazilyAndReusesInstance(t *testing.T) {
	s := NewFieldStore(FieldConfig{})
	sid := testStateID()
	f1 := s.Get(sid)
	f2 := s.Get(sid)
	if f1 != f2 {
		t.Fatalf("expected the same field instance on repeated Get")
	}
	if _, ok := s.Lookup(sid); !ok {
		t.Fatalf("expected Lookup to find the lazily created field")
	}
}

func TestFieldStore_LookupMissingFieldReturnsFalse(t *testing.T) {
	s := NewFieldStore(FieldConfig{})
	if _, ok := s.Lookup(id.StateId{StateType: 9, Instance: 9}); ok {
		t.Fatalf("expected Lookup to report false for an unknown field")
	}
}

func TestFieldStore_ApplyRoutesToTargetState(t *testing.T) {
	s := NewFieldStore(FieldConfig{})
	node := id.NodeId(1)
	sid := testStateID()
	s.Get(sid).Authority.Grant(AuthorityGrant{Node: node})

	ev := Event{
		ID: id.EventId{Source: node, Seq: 1}, Source: node, TargetState: sid,
		VersionRef: id.NewVersionVector(), TimeIntent: id.StateTime(10),
		Mutation: MutationOp{Kind: MutationAppend, AppendValue: []byte("x")},
	}
	if _, err := s.Apply(ev); err != nil {
		t.Fatalf("apply: %v", err)
	}
	snap := s.Get(sid).Project(id.StateTime(100))
	if string(snap.Append) != "x" {
		t.Fatalf("expected routed event to land on the target field, got %q", snap.Append)
	}
}

func TestFieldStore_ProjectCoversAllHeldFields(t *testing.T) {
	s := NewFieldStore(FieldConfig{})
	a := id.StateId{StateType: 1, Instance: 0}
	b := id.StateId{StateType: 2, Instance: 0}
	s.Get(a)
	s.Get(b)

	ids := s.Ids()
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	snaps := s.Project(id.StateTime(0))
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
}

func TestFieldStore_ActivatePredictionsAcrossAllFields(t *testing.T) {
	s := NewFieldStore(FieldConfig{PredictionCap: 4})
	node := id.NodeId(1)
	sid := testStateID()
	s.Get(sid).Authority.Grant(AuthorityGrant{Node: node})
	ev := Event{
		ID: id.EventId{Source: node, Seq: 1}, Source: node, TargetState: sid,
		VersionRef: id.NewVersionVector(), TimeIntent: id.StateTime(100),
		Mutation: MutationOp{Kind: MutationAppend, AppendValue: []byte("x")},
	}
	s.Get(sid).BufferPrediction(ev)
	s.ActivatePredictions(id.StateTime(100))
	if got := s.Get(sid).Project(id.StateTime(100)).Append; string(got) != "x" {
		t.Fatalf("expected store-wide activation to apply the buffered prediction, got %q", got)
	}
}
