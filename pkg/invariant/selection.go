package invariant

import "github.com/rafaelsistems/elara/pkg/id"

// SelectDegradation computes the node's overall degradation level as the
// maximum of three independent floors: the network floor (derived from
// peer loss rates), the state engine's divergence floor (derived from the
// worst field divergence), and the monitor's own raised floor
// (derived from invariant violations). None of the three ever lowers a
// level the others have raised; the node only re-ascends once every floor
// relaxes.
func SelectDegradation(networkFloor, divergenceFloor, monitorFloor id.DegradationLevel) id.DegradationLevel {
	return networkFloor.Max(divergenceFloor).Max(monitorFloor)
}
