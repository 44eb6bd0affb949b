package state

import (
	"testing"

	"github.com/rafaelsistems/elara/pkg/id"
)

func TestReconcile_DependencyQueueFullRejectsNewDependency(t *testing.T) {
	node := id.NodeId(1)
	f := NewField(testStateID(), FieldConfig{DepQueueCap: 1})
	grantAll(f, node)

	blocked1 := Event{
		ID: id.EventId{Source: node, Seq: 2}, Source: node, TargetState: testStateID(),
		VersionRef: id.NewVersionVector().Increment(node, 1), TimeIntent: id.StateTime(10),
		Mutation: MutationOp{Kind: MutationAppend, AppendValue: []byte("a")},
	}
	if _, err := f.Apply(blocked1); err != nil {
		t.Fatalf("first buffered event should be accepted into the queue: %v", err)
	}

	blocked2 := Event{
		ID: id.EventId{Source: node, Seq: 3}, Source: node, TargetState: testStateID(),
		VersionRef: id.NewVersionVector().Increment(node, 2), TimeIntent: id.StateTime(20),
		Mutation: MutationOp{Kind: MutationAppend, AppendValue: []byte("b")},
	}
	if _, err := f.Apply(blocked2); err != ErrMissingDependency {
		t.Fatalf("expected ErrMissingDependency once queue is full, got %v", err)
	}
}

func TestReconcile_ReleaseCascadesThroughChain(t *testing.T) {
	node := id.NodeId(1)
	f := NewField(testStateID(), FieldConfig{DepQueueCap: 8})
	grantAll(f, node)

	mk := func(seq uint32, prev uint64, val string, ts int64) Event {
		vref := id.NewVersionVector()
		if prev > 0 {
			vref = vref.Increment(node, prev)
		}
		return Event{
			ID: id.EventId{Source: node, Seq: seq}, Source: node, TargetState: testStateID(),
			VersionRef: vref, TimeIntent: id.StateTime(ts),
			Mutation: MutationOp{Kind: MutationAppend, AppendValue: []byte(val)},
		}
	}

	third := mk(3, 2, "c", 30)
	second := mk(2, 1, "b", 20)
	first := mk(1, 0, "a", 10)

	if _, err := f.Apply(third); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Apply(second); err != nil {
		t.Fatal(err)
	}
	if got := f.Project(id.StateTime(1000)).Append; len(got) != 0 {
		t.Fatalf("nothing should be visible before the chain head arrives, got %q", got)
	}
	if _, err := f.Apply(first); err != nil {
		t.Fatal(err)
	}
	snap := f.Project(id.StateTime(1000))
	if string(snap.Append) != "abc" {
		t.Fatalf("expected cascading release to apply the whole chain in order, got %q", snap.Append)
	}
}

func TestReconcile_AuthorityExpiryEnforced(t *testing.T) {
	node := id.NodeId(1)
	f := NewField(testStateID(), FieldConfig{})
	f.Authority.Grant(AuthorityGrant{Node: node, ValidFrom: 0, ValidUntil: id.StateTime(100)})

	within := Event{
		ID: id.EventId{Source: node, Seq: 1}, Source: node, TargetState: testStateID(),
		VersionRef: id.NewVersionVector(), TimeIntent: id.StateTime(50),
		Mutation: MutationOp{Kind: MutationAppend, AppendValue: []byte("x")},
	}
	if _, err := f.Apply(within); err != nil {
		t.Fatalf("expected grant valid at t=50: %v", err)
	}

	expired := Event{
		ID: id.EventId{Source: node, Seq: 2}, Source: node, TargetState: testStateID(),
		VersionRef: id.NewVersionVector().Increment(node, 1), TimeIntent: id.StateTime(200),
		Mutation: MutationOp{Kind: MutationAppend, AppendValue: []byte("y")},
	}
	if _, err := f.Apply(expired); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized after grant expiry, got %v", err)
	}
}

func TestReconcile_EntropyBudgetEnforced(t *testing.T) {
	node := id.NodeId(1)
	f := NewField(testStateID(), FieldConfig{EntropyCap: 10})
	grantAll(f, node)
	ev := Event{
		ID: id.EventId{Source: node, Seq: 1}, Source: node, TargetState: testStateID(),
		VersionRef: id.NewVersionVector(), TimeIntent: id.StateTime(10),
		Mutation:    MutationOp{Kind: MutationAppend, AppendValue: []byte("x")},
		EntropyHint: 20,
	}
	if _, err := f.Apply(ev); err != ErrEntropyExceeded {
		t.Fatalf("expected ErrEntropyExceeded, got %v", err)
	}
}
