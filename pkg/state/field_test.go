package state

import (
	"testing"

	"github.com/rafaelsistems/elara/pkg/id"
)

func testStateID() id.StateId {
	return id.StateId{StateType: 1, Instance: 0}
}

func grantAll(f *Field, nodes ...id.NodeId) {
	for _, n := range nodes {
		f.Authority.Grant(AuthorityGrant{Node: n})
	}
}

func TestField_ProjectEmptyIsZeroValue(t *testing.T) {
	f := NewField(testStateID(), FieldConfig{})
	snap := f.Project(id.StateTime(0))
	if len(snap.Append) != 0 || len(snap.KV) != 0 || snap.Replace != nil {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestField_AppendConvergesUnderPermutation(t *testing.T) {
	nodeA := id.NodeId(1)
	nodeB := id.NodeId(2)

	build := func(order []int) []byte {
		f := NewField(testStateID(), FieldConfig{DepQueueCap: 8})
		grantAll(f, nodeA, nodeB)
		events := []Event{
			{
				ID: id.EventId{Source: nodeA, Seq: 1}, Source: nodeA, TargetState: testStateID(),
				VersionRef: id.NewVersionVector(), TimeIntent: id.StateTime(100),
				Mutation: MutationOp{Kind: MutationAppend, AppendValue: []byte("a")},
			},
			{
				ID: id.EventId{Source: nodeB, Seq: 1}, Source: nodeB, TargetState: testStateID(),
				VersionRef: id.NewVersionVector(), TimeIntent: id.StateTime(50),
				Mutation: MutationOp{Kind: MutationAppend, AppendValue: []byte("b")},
			},
			{
				ID: id.EventId{Source: nodeA, Seq: 2}, Source: nodeA, TargetState: testStateID(),
				VersionRef: id.NewVersionVector().Increment(nodeA, 1), TimeIntent: id.StateTime(200),
				Mutation: MutationOp{Kind: MutationAppend, AppendValue: []byte("c")},
			},
		}
		for _, i := range order {
			if _, err := f.Apply(events[i]); err != nil {
				t.Fatalf("apply: %v", err)
			}
		}
		return f.Project(id.StateTime(1000)).Append
	}

	want := build([]int{0, 1, 2})
	got := build([]int{1, 2, 0})
	if string(want) != string(got) {
		t.Fatalf("permutation mismatch: %q vs %q", want, got)
	}
	if string(want) != "bac" {
		t.Fatalf("expected time_intent order b,a,c got %q", want)
	}
}

func TestField_ApplyIsIdempotentOnReplay(t *testing.T) {
	node := id.NodeId(1)
	f := NewField(testStateID(), FieldConfig{})
	grantAll(f, node)
	ev := Event{
		ID: id.EventId{Source: node, Seq: 1}, Source: node, TargetState: testStateID(),
		VersionRef: id.NewVersionVector(), TimeIntent: id.StateTime(10),
		Mutation: MutationOp{Kind: MutationAppend, AppendValue: []byte("x")},
	}
	if _, err := f.Apply(ev); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if _, err := f.Apply(ev); err != nil {
		t.Fatalf("replay apply: %v", err)
	}
	snap := f.Project(id.StateTime(1000))
	if string(snap.Append) != "x" {
		t.Fatalf("expected single x, got %q (replay duplicated)", snap.Append)
	}
}

func TestField_CausalityBuffersOutOfOrderThenReleases(t *testing.T) {
	node := id.NodeId(1)
	f := NewField(testStateID(), FieldConfig{DepQueueCap: 8})
	grantAll(f, node)

	second := Event{
		ID: id.EventId{Source: node, Seq: 2}, Source: node, TargetState: testStateID(),
		VersionRef: id.NewVersionVector().Increment(node, 1), TimeIntent: id.StateTime(20),
		Mutation: MutationOp{Kind: MutationAppend, AppendValue: []byte("b")},
	}
	result, err := f.Apply(second)
	if err != nil {
		t.Fatalf("apply out-of-order: %v", err)
	}
	if result != Buffered {
		t.Fatalf("expected Buffered, got %v", result)
	}
	if len(f.Project(id.StateTime(1000)).Append) != 0 {
		t.Fatalf("buffered event must not be visible yet")
	}

	first := Event{
		ID: id.EventId{Source: node, Seq: 1}, Source: node, TargetState: testStateID(),
		VersionRef: id.NewVersionVector(), TimeIntent: id.StateTime(10),
		Mutation: MutationOp{Kind: MutationAppend, AppendValue: []byte("a")},
	}
	if _, err := f.Apply(first); err != nil {
		t.Fatalf("apply first: %v", err)
	}
	snap := f.Project(id.StateTime(1000))
	if string(snap.Append) != "ab" {
		t.Fatalf("expected buffered event released in order, got %q", snap.Append)
	}
}

func TestField_UnauthorizedSourceRejected(t *testing.T) {
	node := id.NodeId(9)
	f := NewField(testStateID(), FieldConfig{})
	ev := Event{
		ID: id.EventId{Source: node, Seq: 1}, Source: node, TargetState: testStateID(),
		VersionRef: id.NewVersionVector(), TimeIntent: id.StateTime(10),
		Mutation: MutationOp{Kind: MutationAppend, AppendValue: []byte("x")},
	}
	if _, err := f.Apply(ev); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestField_SetIsLastWriterWinsByTimeIntentThenSource(t *testing.T) {
	nodeA := id.NodeId(1)
	nodeB := id.NodeId(2)
	f := NewField(testStateID(), FieldConfig{})
	grantAll(f, nodeA, nodeB)

	early := Event{
		ID: id.EventId{Source: nodeA, Seq: 1}, Source: nodeA, TargetState: testStateID(),
		VersionRef: id.NewVersionVector(), TimeIntent: id.StateTime(10),
		Mutation: MutationOp{Kind: MutationSet, SetKey: "k", SetValue: []byte("early")},
	}
	late := Event{
		ID: id.EventId{Source: nodeB, Seq: 1}, Source: nodeB, TargetState: testStateID(),
		VersionRef: id.NewVersionVector(), TimeIntent: id.StateTime(20),
		Mutation: MutationOp{Kind: MutationSet, SetKey: "k", SetValue: []byte("late")},
	}
	if _, err := f.Apply(late); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Apply(early); err != nil {
		t.Fatal(err)
	}
	snap := f.Project(id.StateTime(1000))
	if string(snap.KV["k"]) != "late" {
		t.Fatalf("expected later time_intent to win regardless of arrival order, got %q", snap.KV["k"])
	}
}

func TestField_BoundsExceededRejected(t *testing.T) {
	node := id.NodeId(1)
	f := NewField(testStateID(), FieldConfig{SizeCap: 2})
	grantAll(f, node)
	ev := Event{
		ID: id.EventId{Source: node, Seq: 1}, Source: node, TargetState: testStateID(),
		VersionRef: id.NewVersionVector(), TimeIntent: id.StateTime(10),
		Mutation: MutationOp{Kind: MutationAppend, AppendValue: []byte("xyz")},
	}
	if _, err := f.Apply(ev); err != ErrStateBoundsExceeded {
		t.Fatalf("expected ErrStateBoundsExceeded, got %v", err)
	}
}

func TestField_NonOverlappingPatchesBothApply(t *testing.T) {
	node := id.NodeId(1)
	f := NewField(testStateID(), FieldConfig{})
	grantAll(f, node)
	p1 := Event{
		ID: id.EventId{Source: node, Seq: 1}, Source: node, TargetState: testStateID(),
		VersionRef: id.NewVersionVector(), TimeIntent: id.StateTime(10),
		Mutation: MutationOp{Kind: MutationPatch, PatchStart: 0, PatchEnd: 2, PatchBytes: []byte("ab")},
	}
	p2 := Event{
		ID: id.EventId{Source: node, Seq: 2}, Source: node, TargetState: testStateID(),
		VersionRef: id.NewVersionVector().Increment(node, 1), TimeIntent: id.StateTime(20),
		Mutation: MutationOp{Kind: MutationPatch, PatchStart: 2, PatchEnd: 4, PatchBytes: []byte("cd")},
	}
	if _, err := f.Apply(p1); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Apply(p2); err != nil {
		t.Fatal(err)
	}
	snap := f.Project(id.StateTime(1000))
	if string(snap.Replace) != "abcd" {
		t.Fatalf("expected non-overlapping patches to both apply, got %q", snap.Replace)
	}
}

func TestField_OverlappingPatchDowngradesToReplace(t *testing.T) {
	node := id.NodeId(1)
	f := NewField(testStateID(), FieldConfig{})
	grantAll(f, node)
	p1 := Event{
		ID: id.EventId{Source: node, Seq: 1}, Source: node, TargetState: testStateID(),
		VersionRef: id.NewVersionVector(), TimeIntent: id.StateTime(10),
		Mutation: MutationOp{Kind: MutationPatch, PatchStart: 0, PatchEnd: 2, PatchBytes: []byte("ab")},
	}
	p2 := Event{
		ID: id.EventId{Source: node, Seq: 2}, Source: node, TargetState: testStateID(),
		VersionRef: id.NewVersionVector().Increment(node, 1), TimeIntent: id.StateTime(20),
		Mutation: MutationOp{Kind: MutationPatch, PatchStart: 1, PatchEnd: 3, PatchBytes: []byte("xy")},
	}
	if _, err := f.Apply(p1); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Apply(p2); err != nil {
		t.Fatal(err)
	}
	snap := f.Project(id.StateTime(1000))
	if string(snap.Replace) != "axy" {
		t.Fatalf("expected overlap downgrade to replace of the wider range, got %q", snap.Replace)
	}
}

func TestField_PredictionBufferActivatesOnTimeArrival(t *testing.T) {
	node := id.NodeId(1)
	f := NewField(testStateID(), FieldConfig{PredictionCap: 4})
	grantAll(f, node)
	ev := Event{
		ID: id.EventId{Source: node, Seq: 1}, Source: node, TargetState: testStateID(),
		VersionRef: id.NewVersionVector(), TimeIntent: id.StateTime(500),
		Mutation: MutationOp{Kind: MutationAppend, AppendValue: []byte("future")},
	}
	f.BufferPrediction(ev)
	if snap := f.Project(id.StateTime(100)); len(snap.Append) != 0 {
		t.Fatalf("prediction must not be visible before its time_intent")
	}
	snap := f.Project(id.StateTime(500))
	if string(snap.Append) != "future" {
		t.Fatalf("expected prediction activated at its time_intent, got %q", snap.Append)
	}
}
