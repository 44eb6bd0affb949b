package id

// VersionVector is a node's observed causal history: for each source NodeId,
// the highest sequence number causally observed from it. A missing entry
// reads as 0 via Get.
//
// VersionVector is treated as immutable once published: Increment and Merge
// both return a new vector rather than mutating the receiver, so a snapshot
// handed to a consumer at a tick boundary can never be changed out from
// under it.
type VersionVector map[NodeId]uint64

// NewVersionVector returns an empty version vector.
func NewVersionVector() VersionVector {
	return make(VersionVector)
}

// Get returns the observed sequence number for node, or 0 if never observed.
func (v VersionVector) Get(node NodeId) uint64 {
	return v[node]
}

// Increment returns a copy of v with node's entry raised to seq, if seq is
// higher than the current entry. Never decreases an entry.
func (v VersionVector) Increment(node NodeId, seq uint64) VersionVector {
	out := v.clone()
	if seq > out[node] {
		out[node] = seq
	}
	return out
}

// Merge returns the pointwise maximum of v and other. Merge is commutative,
// associative, and idempotent, and never decreases any component.
func (v VersionVector) Merge(other VersionVector) VersionVector {
	out := v.clone()
	for node, seq := range other {
		if seq > out[node] {
			out[node] = seq
		}
	}
	return out
}

// HappensBefore reports whether v causally precedes other: every entry of v
// is dominated by the corresponding entry of other, and at least one entry
// is strictly less.
func (v VersionVector) HappensBefore(other VersionVector) bool {
	strictlyLess := false
	for node, seq := range v {
		os := other.Get(node)
		if seq > os {
			return false
		}
		if seq < os {
			strictlyLess = true
		}
	}
	for node, os := range other {
		if _, ok := v[node]; !ok && os > 0 {
			strictlyLess = true
		}
	}
	return strictlyLess
}

// ConcurrentWith reports whether neither v nor other happens-before the
// other — the two vectors reflect divergent, unordered histories.
func (v VersionVector) ConcurrentWith(other VersionVector) bool {
	return !v.HappensBefore(other) && !other.HappensBefore(v) && !v.Equal(other)
}

// Equal reports whether v and other hold identical entries (missing entries
// and explicit zero entries are equivalent).
func (v VersionVector) Equal(other VersionVector) bool {
	for node, seq := range v {
		if seq != other.Get(node) {
			return false
		}
	}
	for node, seq := range other {
		if seq != v.Get(node) {
			return false
		}
	}
	return true
}

// Dominates reports whether every entry of other is at or below v's
// corresponding entry — the causality check the state engine applies to an
// incoming event's version_ref.
func (v VersionVector) Dominates(other VersionVector) bool {
	for node, seq := range other {
		if v.Get(node) < seq {
			return false
		}
	}
	return true
}

func (v VersionVector) clone() VersionVector {
	out := make(VersionVector, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
