package clock

import (
	"math"
	"sync"
	"time"

	"github.com/rafaelsistems/elara/pkg/id"
)

// peerStats holds the running estimates for one peer: RTT (Welford mean and
// variance), one-way delay skew, and a loss-rate tracker derived from
// observed-sequence gaps.
type peerStats struct {
	rttMean float64
	rttM2   float64 // Welford running sum of squared deviations
	count   int64

	skewMean  float64
	skewM2    float64
	skewCount int64

	lastSeq uint32
	haveSeq bool
	lost    int64
	total   int64
}

// NetworkModel holds per-peer running network estimates and exposes the
// correction and prediction horizons derived from them.
type NetworkModel struct {
	mu sync.Mutex

	peers map[id.NodeId]*peerStats

	correctionHorizonK float64
	predictionHorizon  time.Duration
}

// NewNetworkModel returns a network model using the given correction-horizon
// scale factor (k in rtt_mean + k*stddev) and prediction horizon bound.
func NewNetworkModel(correctionHorizonK float64, predictionHorizon time.Duration) *NetworkModel {
	return &NetworkModel{
		peers:              make(map[id.NodeId]*peerStats),
		correctionHorizonK: correctionHorizonK,
		predictionHorizon:  predictionHorizon,
	}
}

// UpdateFromPacket folds one observed packet's samples into the peer's
// running estimates: an RTT sample (from an acked round trip, if any), a
// one-way delay skew sample, and the packet's sequence number, which is
// compared against the last observed sequence to track loss rate.
func (m *NetworkModel) UpdateFromPacket(peer id.NodeId, rttSample time.Duration, skewSample time.Duration, observedSeq uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.peers[peer]
	if !ok {
		s = &peerStats{}
		m.peers[peer] = s
	}

	if rttSample > 0 {
		s.count++
		x := float64(rttSample.Milliseconds())
		delta := x - s.rttMean
		s.rttMean += delta / float64(s.count)
		delta2 := x - s.rttMean
		s.rttM2 += delta * delta2
	}

	s.skewCount++
	sx := float64(skewSample.Milliseconds())
	sdelta := sx - s.skewMean
	s.skewMean += sdelta / float64(s.skewCount)
	sdelta2 := sx - s.skewMean
	s.skewM2 += sdelta * sdelta2

	s.total++
	if s.haveSeq {
		if observedSeq > s.lastSeq+1 {
			s.lost += int64(observedSeq - s.lastSeq - 1)
		}
	}
	if !s.haveSeq || observedSeq > s.lastSeq {
		s.lastSeq = observedSeq
		s.haveSeq = true
	}
}

// RTTMean returns the running mean RTT estimate for peer, in milliseconds.
func (m *NetworkModel) RTTMean(peer id.NodeId) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.peers[peer]
	if !ok {
		return 0
	}
	return time.Duration(s.rttMean) * time.Millisecond
}

// RTTStdDev returns the running RTT standard deviation estimate for peer.
func (m *NetworkModel) RTTStdDev(peer id.NodeId) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.peers[peer]
	if !ok || s.count < 2 {
		return 0
	}
	variance := s.rttM2 / float64(s.count-1)
	return time.Duration(math.Sqrt(variance)) * time.Millisecond
}

// SkewMean returns the running mean one-way delay skew estimate for peer.
func (m *NetworkModel) SkewMean(peer id.NodeId) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.peers[peer]
	if !ok {
		return 0
	}
	return time.Duration(s.skewMean) * time.Millisecond
}

// SkewStdDev returns the running one-way delay skew standard deviation
// estimate for peer.
func (m *NetworkModel) SkewStdDev(peer id.NodeId) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.peers[peer]
	if !ok || s.skewCount < 2 {
		return 0
	}
	variance := s.skewM2 / float64(s.skewCount-1)
	return time.Duration(math.Sqrt(variance)) * time.Millisecond
}

// LossRate returns the fraction of expected sequence numbers not observed
// from peer, in [0,1].
func (m *NetworkModel) LossRate(peer id.NodeId) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.peers[peer]
	if !ok || s.total == 0 {
		return 0
	}
	return float64(s.lost) / float64(s.total+s.lost)
}

// CorrectionHorizon returns rtt_mean + k*rtt_stddev for peer: events older
// than state-clock-now minus this horizon are too late. When no acked
// round-trip samples have been observed for peer, it falls back to the
// one-way delay skew estimate instead of treating the horizon as zero,
// since a permanently-zero horizon would reject every real inbound event
// as arriving from the past.
func (m *NetworkModel) CorrectionHorizon(peer id.NodeId) time.Duration {
	mean := m.RTTMean(peer)
	stddev := m.RTTStdDev(peer)
	if mean == 0 {
		mean = m.SkewMean(peer)
		stddev = m.SkewStdDev(peer)
	}
	return mean + time.Duration(m.correctionHorizonK*float64(stddev))
}

// PredictionHorizon returns the max_ahead_allowed bound: events newer than
// state-clock-now plus this horizon are too early.
func (m *NetworkModel) PredictionHorizon() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictionHorizon
}
