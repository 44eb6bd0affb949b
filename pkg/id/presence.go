package id

// PresenceVector is the five-component signal of how fully a node is
// participating: liveness, immediacy, coherence, relational continuity, and
// emotional bandwidth. Each component lies in [0,1].
type PresenceVector struct {
	Liveness             float64
	Immediacy            float64
	Coherence            float64
	RelationalContinuity float64
	EmotionalBandwidth   float64
}

// presenceWeights is the weighted-mean blend used by Aggregate. Liveness
// carries the largest weight: a node that isn't alive at all can't have
// meaningful immediacy or coherence.
var presenceWeights = [5]float64{0.30, 0.20, 0.20, 0.15, 0.15}

// Validate reports whether every component lies within [0,1].
func (p PresenceVector) Validate() error {
	for _, c := range p.components() {
		if c < 0 || c > 1 {
			return ErrInvalidPresenceComponent
		}
	}
	return nil
}

func (p PresenceVector) components() [5]float64 {
	return [5]float64{p.Liveness, p.Immediacy, p.Coherence, p.RelationalContinuity, p.EmotionalBandwidth}
}

// Aggregate reduces the vector to a single scalar in [0,1] via a weighted
// mean, with a floor: if any component is strictly positive, the aggregate
// is strictly positive too. This is the "presence never collapses to zero
// while the node is reachable" invariant expressed as an arithmetic
// guarantee rather than a special case the caller must remember to check.
func (p PresenceVector) Aggregate() float64 {
	comps := p.components()
	var sum, anyPositive float64
	for i, c := range comps {
		sum += c * presenceWeights[i]
		if c > 0 {
			anyPositive = 1
		}
	}
	if sum <= 0 && anyPositive > 0 {
		return presenceFloor
	}
	return sum
}

// presenceFloor is the minimum aggregate presence reported whenever any
// component is positive but the weighted mean would otherwise round to
// zero (e.g. a single small component weighted against four zeros).
const presenceFloor = 0.01

// Zero is the presence vector reported for a node with no observed signal
// at all (not the same as "floored": a genuinely silent node reports 0).
func Zero() PresenceVector { return PresenceVector{} }
