package diffusion

import "errors"

// Diffusion errors.
var (
	// ErrUnknownPeer names the case of a peer not registered in the swarm.
	// No function in this package returns it.
	ErrUnknownPeer = errors.New("diffusion: unknown peer")

	// ErrRepairInFlight names the case of a repair for a state requested
	// again before the prior request's backoff has elapsed. No function in
	// this package returns it.
	ErrRepairInFlight = errors.New("diffusion: repair already in flight")
)
