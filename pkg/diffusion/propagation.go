package diffusion

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rafaelsistems/elara/pkg/id"
)

// Outbound is a single propagation decision: send payload for state to peer.
type Outbound struct {
	State id.StateId
	Peer  id.NodeId
}

// Fanout computes the set of peers a freshly-applied event for state should
// be propagated to, given the swarm's current topology shape. Under
// ShapeFullMesh every other member is forwarded to directly. Under
// ShapeStarViaAuthority, a non-authoritative node only forwards to the
// authority holder (who then re-propagates to observers), and the authority
// holder forwards to every observer.
func Fanout(self id.NodeId, state id.StateId, shape Shape, authority *AuthorityGraph, interest *InterestSet, members []id.NodeId) []Outbound {
	var out []Outbound

	switch shape {
	case ShapeFullMesh:
		for _, peer := range members {
			if peer == self {
				continue
			}
			out = append(out, Outbound{State: state, Peer: peer})
		}

	case ShapeStarViaAuthority:
		holder, ok := authority.Authority(state)
		if !ok {
			break
		}
		if self != holder {
			out = append(out, Outbound{State: state, Peer: holder})
			break
		}
		for _, peer := range interest.Observers(state) {
			if peer == self {
				continue
			}
			out = append(out, Outbound{State: state, Peer: peer})
		}
	}
	return out
}

// RepairBackoff computes retry delays for a repair request made to a peer
// after detecting an out-of-sync state (a ratchet desync, a persistently
// missing causal dependency). It wraps an exponential backoff with jitter so
// concurrent repair requests from many observers of the same authority
// holder don't synchronize into a thundering herd.
type RepairBackoff struct {
	mu       sync.Mutex
	inFlight map[id.StateId]backoff.BackOff
}

// NewRepairBackoff returns an empty repair-backoff tracker.
func NewRepairBackoff() *RepairBackoff {
	return &RepairBackoff{inFlight: make(map[id.StateId]backoff.BackOff)}
}

// newPolicy builds the exponential-backoff policy used for every repair
// request: a short initial interval since repairs should resolve quickly
// once requested, capped so a stuck repair doesn't silently retry forever.
func newPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 2 * time.Minute
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.3
	return b
}

// Next returns the delay to wait before the next repair request for state,
// starting (and tracking) a new backoff policy on first call. Returns
// backoff.Stop (-1) once MaxElapsedTime has been exceeded, signaling the
// caller to give up and escalate (e.g. drop to a deeper degradation level).
func (r *RepairBackoff) Next(state id.StateId) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.inFlight[state]
	if !ok {
		b = newPolicy()
		r.inFlight[state] = b
	}
	return b.NextBackOff()
}

// Resolved clears the tracked backoff policy for state, e.g. once the
// repair succeeds or the state is abandoned.
func (r *RepairBackoff) Resolved(state id.StateId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, state)
}
