package state

import (
	"testing"

	"github.com/rafaelsistems/elara/pkg/id"
)

func TestPartitionTracker_LatchesAndHoldsThroughCooldown(t *testing.T) {
	p := NewPartitionTracker(0.5, 100)
	p.Observe(id.StateTime(0), 0.8)
	if !p.Partitioned() {
		t.Fatalf("expected partitioned once threshold crossed")
	}
	p.Observe(id.StateTime(50), 0.1)
	if !p.Partitioned() {
		t.Fatalf("expected partitioned to hold during cooldown")
	}
	p.Observe(id.StateTime(150), 0.1)
	if p.Partitioned() {
		t.Fatalf("expected healed once cooldown elapsed and divergence below threshold")
	}
}

func TestPartitionTracker_ZeroThresholdDisablesDetection(t *testing.T) {
	p := NewPartitionTracker(0, 100)
	p.Observe(id.StateTime(0), 1.0)
	if p.Partitioned() {
		t.Fatalf("expected detection disabled with non-positive threshold")
	}
}

func TestField_DivergenceReflectsConcurrentPeers(t *testing.T) {
	node := id.NodeId(1)
	f := NewField(testStateID(), FieldConfig{DivergenceThreshold: 0.25, PartitionCooldown: 0})
	grantAll(f, node)
	ev := Event{
		ID: id.EventId{Source: node, Seq: 1}, Source: node, TargetState: testStateID(),
		VersionRef: id.NewVersionVector(), TimeIntent: id.StateTime(10),
		Mutation: MutationOp{Kind: MutationAppend, AppendValue: []byte("x")},
	}
	if _, err := f.Apply(ev); err != nil {
		t.Fatal(err)
	}

	peerAhead := id.NewVersionVector().Increment(node, 2)
	peerDominated := id.NewVersionVector()
	peerConcurrent := id.NewVersionVector().Increment(id.NodeId(2), 1)

	metric := f.Divergence(id.StateTime(20), []id.VersionVector{peerAhead, peerDominated, peerConcurrent})
	if metric != DivergenceMetric(1.0/3.0) {
		t.Fatalf("expected 1/3 concurrent peers, got %v", metric)
	}
	if !f.Partitioned() {
		t.Fatalf("expected partitioned once divergence crosses threshold")
	}
}
