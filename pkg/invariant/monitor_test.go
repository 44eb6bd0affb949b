package invariant

import (
	"testing"
	"time"

	"github.com/rafaelsistems/elara/pkg/id"
	"github.com/rafaelsistems/elara/pkg/logging"
)

func testMonitor() *Monitor {
	return NewMonitor(id.NodeId(1), Params{
		StageDeadline:   10 * time.Millisecond,
		PresenceWindow:  5 * time.Second,
		LivenessTimeout: 1 * time.Second,
	}, logging.NewNopFactory())
}

func TestMonitor_StageDeadlineBreachRaisesFloor(t *testing.T) {
	m := testMonitor()
	if m.RaisedFloor() != id.L0FullPerception {
		t.Fatalf("expected clean floor initially")
	}
	m.ObserveStageDuration(50 * time.Millisecond)
	if m.RaisedFloor() < id.L1DistortedPerception {
		t.Fatalf("expected floor raised after deadline breach, got %v", m.RaisedFloor())
	}
}

func TestMonitor_StageWithinDeadlineNoViolation(t *testing.T) {
	m := testMonitor()
	m.ObserveStageDuration(1 * time.Millisecond)
	if m.RaisedFloor() != id.L0FullPerception {
		t.Fatalf("expected no floor raise within deadline, got %v", m.RaisedFloor())
	}
	if len(m.Violations()) != 0 {
		t.Fatalf("expected no recorded violations")
	}
}

func TestMonitor_PresenceCollapseWithRecentPeerRaisesFloor(t *testing.T) {
	m := testMonitor()
	m.ObservePresence(id.PerceptualTime(0), 0.5, true)
	m.ObservePresence(id.PerceptualTime(100), 0, false)
	if m.RaisedFloor() == id.L0FullPerception {
		t.Fatalf("expected floor raised when presence collapses with a recent peer seen")
	}
}

func TestMonitor_PresenceZeroWithoutRecentPeerIsFine(t *testing.T) {
	m := testMonitor()
	m.ObservePresence(id.PerceptualTime(0), 0, false)
	if m.RaisedFloor() != id.L0FullPerception {
		t.Fatalf("expected no violation when no peer has ever been seen")
	}
}

func TestMonitor_LivenessTimeoutMarksLatent(t *testing.T) {
	m := testMonitor()
	latent := m.ObserveLiveness(id.PerceptualTime(5000), id.PerceptualTime(0))
	if !latent {
		t.Fatalf("expected peer marked latent after exceeding timeout")
	}
	if m.RaisedFloor() == id.L0FullPerception {
		t.Fatalf("expected floor raised on liveness timeout")
	}
}

func TestMonitor_LivenessWithinTimeoutNotLatent(t *testing.T) {
	m := testMonitor()
	latent := m.ObserveLiveness(id.PerceptualTime(500), id.PerceptualTime(0))
	if latent {
		t.Fatalf("expected peer not latent within timeout")
	}
}

func TestMonitor_IdentityMismatchRaisesFloor(t *testing.T) {
	m := testMonitor()
	m.CheckIdentityPersisted(id.NodeId(1))
	if m.RaisedFloor() != id.L0FullPerception {
		t.Fatalf("expected no violation for matching identity")
	}
	m.CheckIdentityPersisted(id.NodeId(2))
	if m.RaisedFloor() == id.L0FullPerception {
		t.Fatalf("expected floor raised on identity mismatch")
	}
}

func TestMonitor_RelaxLowersFloorNotBelowGiven(t *testing.T) {
	m := testMonitor()
	m.ObserveStageDuration(50 * time.Millisecond)
	if m.RaisedFloor() == id.L0FullPerception {
		t.Fatalf("precondition: expected raised floor")
	}
	m.Relax(id.L0FullPerception)
	if m.RaisedFloor() != id.L0FullPerception {
		t.Fatalf("expected Relax to lower the floor, got %v", m.RaisedFloor())
	}
}

func TestMonitor_RecordRewrittenFailureLogsWithoutPanicking(t *testing.T) {
	m := testMonitor()
	m.RecordRewrittenFailure("transport send failed, degraded instead of surfaced")
	if len(m.Violations()) != 1 {
		t.Fatalf("expected one recorded violation")
	}
}

func TestSelectDegradation_IsMaxOfThreeFloors(t *testing.T) {
	got := SelectDegradation(id.L1DistortedPerception, id.L3SymbolicPresence, id.L2FragmentedPerception)
	if got != id.L3SymbolicPresence {
		t.Fatalf("expected max across floors, got %v", got)
	}
}
