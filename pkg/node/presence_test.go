package node

import (
	"testing"
	"time"

	"github.com/rafaelsistems/elara/pkg/id"
	"github.com/rafaelsistems/elara/pkg/transport"
)

func TestComputePresence_SolitarySessionIsFullyLive(t *testing.T) {
	s := newTestSession(t)
	pv := computePresence(s, id.PerceptualTime(0), time.Second, id.L0FullPerception)
	if pv.Liveness != 1 {
		t.Errorf("Liveness = %v, want 1 (no peers to have gone silent on)", pv.Liveness)
	}
	if pv.RelationalContinuity != 1 {
		t.Errorf("RelationalContinuity = %v, want 1", pv.RelationalContinuity)
	}
	if pv.EmotionalBandwidth != 1 {
		t.Errorf("EmotionalBandwidth = %v, want 1 at L0FullPerception", pv.EmotionalBandwidth)
	}
}

func TestComputePresence_SilentPeerLowersLiveness(t *testing.T) {
	s := newTestSession(t)
	peer := id.NodeId(2)
	addr := transport.NewPipeAddress(transport.PipeAddr{ID: 1, Port: 9})
	s.setPeerAddr(peer, addr)

	pv := computePresence(s, id.PerceptualTime(100_000), time.Second, id.L0FullPerception)
	if pv.Liveness != 0 {
		t.Errorf("Liveness = %v, want 0 for a peer never seen", pv.Liveness)
	}

	s.markSeen(peer, id.PerceptualTime(100_000))
	pv = computePresence(s, id.PerceptualTime(100_000), time.Second, id.L0FullPerception)
	if pv.Liveness != 1 {
		t.Errorf("Liveness = %v, want 1 for a peer just seen", pv.Liveness)
	}
}

func TestComputePresence_DegradationLowersEmotionalBandwidth(t *testing.T) {
	s := newTestSession(t)
	full := computePresence(s, id.PerceptualTime(0), time.Second, id.L0FullPerception)
	degraded := computePresence(s, id.PerceptualTime(0), time.Second, id.L5LatentPresence)

	if degraded.EmotionalBandwidth >= full.EmotionalBandwidth {
		t.Errorf("EmotionalBandwidth at L5 (%v) should be lower than at L0 (%v)", degraded.EmotionalBandwidth, full.EmotionalBandwidth)
	}
	if degraded.EmotionalBandwidth != 0 {
		t.Errorf("EmotionalBandwidth at L5LatentPresence = %v, want 0", degraded.EmotionalBandwidth)
	}
}

func TestComputePresence_RelationalContinuityTracksVersionHistory(t *testing.T) {
	s := newTestSession(t)
	peerA := id.NodeId(2)
	peerB := id.NodeId(3)
	addr := transport.NewPipeAddress(transport.PipeAddr{ID: 1, Port: 9})
	s.setPeerAddr(peerA, addr)
	s.setPeerAddr(peerB, addr)

	pv := computePresence(s, id.PerceptualTime(0), time.Second, id.L0FullPerception)
	if pv.RelationalContinuity != 0 {
		t.Errorf("RelationalContinuity with no exchanged history = %v, want 0", pv.RelationalContinuity)
	}

	s.recordPeerVersion(peerA, id.NewVersionVector().Increment(peerA, 1))
	pv = computePresence(s, id.PerceptualTime(0), time.Second, id.L0FullPerception)
	if pv.RelationalContinuity != 0.5 {
		t.Errorf("RelationalContinuity with 1 of 2 peers = %v, want 0.5", pv.RelationalContinuity)
	}
}

func TestClamp01(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.5, 1},
	}
	for _, c := range cases {
		if got := clamp01(c.in); got != c.want {
			t.Errorf("clamp01(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
