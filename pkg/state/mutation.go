package state

import "github.com/rafaelsistems/elara/pkg/id"

// MutationKind tags the operation an Event carries. MutationOp is a tagged
// sum over these kinds rather than an interface hierarchy: merge rules are
// defined per tag in reconcile.go, and a type switch there is the only
// place that needs to know about all of them.
type MutationKind uint8

const (
	MutationAppend MutationKind = iota
	MutationSet
	MutationReplace
	MutationPatch
)

func (k MutationKind) String() string {
	switch k {
	case MutationAppend:
		return "Append"
	case MutationSet:
		return "Set"
	case MutationReplace:
		return "Replace"
	case MutationPatch:
		return "Patch"
	default:
		return "Unknown"
	}
}

// MutationOp is the tagged-union mutation payload an Event carries. Only the
// fields relevant to Kind are meaningful.
type MutationOp struct {
	Kind MutationKind

	// Append: bytes to concatenate onto the field's append log.
	AppendValue []byte

	// Set: last-writer-wins key/value pair.
	SetKey   string
	SetValue []byte

	// Replace: whole-value replacement.
	ReplaceValue []byte

	// Patch: a byte-range replacement; non-overlapping patches apply
	// independently, an overlapping patch is downgraded to Replace of the
	// wider range by the reconciler.
	PatchStart int
	PatchEnd   int
	PatchBytes []byte
}

// Size approximates the mutation's on-the-wire footprint, used for bounds
// and entropy accounting.
func (m MutationOp) Size() int {
	switch m.Kind {
	case MutationAppend:
		return len(m.AppendValue)
	case MutationSet:
		return len(m.SetKey) + len(m.SetValue)
	case MutationReplace:
		return len(m.ReplaceValue)
	case MutationPatch:
		return len(m.PatchBytes)
	default:
		return 0
	}
}

// Event is a single causally-ordered mutation to a target state.
type Event struct {
	ID             id.EventId
	Source         id.NodeId
	TargetState    id.StateId
	VersionRef     id.VersionVector
	Mutation       MutationOp
	TimeIntent     id.StateTime
	AuthorityProof []byte
	EntropyHint    uint32
}
