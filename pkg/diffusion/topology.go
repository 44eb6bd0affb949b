package diffusion

import "github.com/rafaelsistems/elara/pkg/id"

// Shape names a propagation topology.
type Shape uint8

const (
	// ShapeFullMesh: every peer forwards directly to every other peer.
	// Lowest latency, highest bandwidth; only viable for small swarms at
	// full fidelity.
	ShapeFullMesh Shape = iota
	// ShapeStarViaAuthority: peers forward only to the state's
	// authoritative holder and receive only from it, trading latency for
	// bandwidth as swarm size or degradation grows.
	ShapeStarViaAuthority
)

func (s Shape) String() string {
	if s == ShapeFullMesh {
		return "full-mesh"
	}
	return "star-via-authority"
}

// FullMeshMemberLimit is the largest swarm size at which full-mesh
// propagation is selected; above it the topology falls back to a star
// routed through the state's authority holder to bound each node's
// outbound fanout.
const FullMeshMemberLimit = 6

// SelectShape picks the propagation topology for a state given how many
// members are in the swarm and the node's current degradation level:
// degrading beyond L2 always forces a star (every bit spent on fanout
// duplication competes with bits spent preserving presence fidelity, so the
// two decisions share one threshold), and within L0-L2 mesh is used only
// while the swarm is small enough that the fanout cost stays bounded.
func SelectShape(memberCount int, level id.DegradationLevel) Shape {
	if level > id.L2FragmentedPerception {
		return ShapeStarViaAuthority
	}
	if memberCount <= FullMeshMemberLimit {
		return ShapeFullMesh
	}
	return ShapeStarViaAuthority
}
