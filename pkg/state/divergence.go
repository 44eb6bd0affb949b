package state

import "github.com/rafaelsistems/elara/pkg/id"

// DivergenceMetric summarizes how far a field's replicas have drifted apart:
// the fraction of peer version vectors this field's version neither
// dominates nor is dominated by (i.e. genuinely concurrent, unmerged
// history), scaled into [0,1].
type DivergenceMetric float64

// PartitionTracker watches a field's divergence against its known peers and
// latches a partitioned state once divergence crosses a threshold, holding
// it for a cooldown period before allowing recovery — this avoids flapping
// between partitioned/healed on every single reconciled event right at the
// boundary.
type PartitionTracker struct {
	threshold float64
	cooldown  int64 // ms

	partitioned    bool
	partitionedAt  id.StateTime
	lastDivergence DivergenceMetric
}

// NewPartitionTracker returns a tracker with the given divergence threshold
// and cooldown (milliseconds) before a partitioned field may report healed
// again. A non-positive threshold disables partition detection entirely.
func NewPartitionTracker(threshold float64, cooldownMs int64) *PartitionTracker {
	return &PartitionTracker{threshold: threshold, cooldown: cooldownMs}
}

// Observe records a freshly computed divergence metric at time now and
// updates the latched partitioned state.
func (p *PartitionTracker) Observe(now id.StateTime, metric DivergenceMetric) {
	p.lastDivergence = metric
	if p.threshold <= 0 {
		return
	}
	if !p.partitioned {
		if float64(metric) >= p.threshold {
			p.partitioned = true
			p.partitionedAt = now
		}
		return
	}
	if int64(now-p.partitionedAt) >= p.cooldown && float64(metric) < p.threshold {
		p.partitioned = false
	}
}

// Partitioned reports the tracker's current latched state.
func (p *PartitionTracker) Partitioned() bool {
	return p.partitioned
}

// Divergence returns the most recently observed divergence metric.
func (p *PartitionTracker) Divergence() DivergenceMetric {
	return p.lastDivergence
}

// Divergence computes this field's current divergence against a set of peer
// version vectors: the fraction of peers whose vector is concurrent with
// (neither dominates nor is dominated by) this field's vector, and feeds the
// result to the field's PartitionTracker.
func (f *Field) Divergence(now id.StateTime, peers []id.VersionVector) DivergenceMetric {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(peers) == 0 {
		f.divergence.Observe(now, 0)
		return 0
	}
	concurrent := 0
	for _, peer := range peers {
		if f.version.ConcurrentWith(peer) {
			concurrent++
		}
	}
	metric := DivergenceMetric(float64(concurrent) / float64(len(peers)))
	f.divergence.Observe(now, metric)
	return metric
}

// Partitioned reports whether this field's divergence tracker currently
// considers it partitioned from its peers.
func (f *Field) Partitioned() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.divergence.Partitioned()
}
