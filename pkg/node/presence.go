package node

import (
	"time"

	"github.com/rafaelsistems/elara/pkg/id"
)

// rttCeiling is the round-trip estimate above which immediacy is treated as
// fully collapsed. Below it, immediacy falls off linearly.
const rttCeiling = 500 * time.Millisecond

// computePresence derives this session's aggregate PresenceVector from the
// signals the tick loop already tracks: peer liveness, network immediacy
// (RTT), state coherence (inverse divergence), relational continuity (peers
// with exchanged causal history), and emotional bandwidth (inverse
// degradation). A solitary session with no registered peers reports full
// liveness and continuity: there is no one to have gone silent on.
func computePresence(s *session, now id.PerceptualTime, livenessTimeout time.Duration, level id.DegradationLevel) id.PresenceVector {
	peers := s.peers()

	liveness := 1.0
	continuity := 1.0
	if len(peers) > 0 {
		seen := 0
		for _, p := range peers {
			if s.seenWithin(p, now, livenessTimeout) {
				seen++
			}
		}
		liveness = float64(seen) / float64(len(peers))
		continuity = float64(s.peersWithHistory()) / float64(len(peers))
	}

	immediacy := 1.0
	if rtt := s.meanRTT(); rtt > 0 {
		immediacy = 1 - float64(rtt)/float64(rttCeiling)
		if immediacy < 0 {
			immediacy = 0
		}
	}

	coherence := 1 - float64(s.worstDivergence())

	emotionalBandwidth := 1 - float64(level)/float64(id.L5LatentPresence)

	return id.PresenceVector{
		Liveness:             clamp01(liveness),
		Immediacy:            clamp01(immediacy),
		Coherence:            clamp01(coherence),
		RelationalContinuity: clamp01(continuity),
		EmotionalBandwidth:   clamp01(emotionalBandwidth),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
