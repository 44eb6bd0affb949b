package diffusion

import (
	"sync"

	"github.com/rafaelsistems/elara/pkg/id"
	"github.com/rafaelsistems/elara/pkg/logging"
)

// Router is a single node's view of its swarm: current membership, who is
// authoritative for which state, who observes which state, and the
// propagation decisions that follow from them. It is the component
// pkg/node's runtime loop consults at the propagation stage of each tick.
type Router struct {
	self id.NodeId
	log  logging.LeveledLogger

	Authority *AuthorityGraph
	Interest  *InterestSet
	Repair    *RepairBackoff

	mu      sync.RWMutex
	members map[id.NodeId]struct{}
}

// NewRouter returns a router for self, logging through the factory.
func NewRouter(self id.NodeId, loggerFactory logging.LoggerFactory) *Router {
	return &Router{
		self:      self,
		log:       loggerFactory.NewLogger("diffusion"),
		Authority: NewAuthorityGraph(),
		Interest:  NewInterestSet(),
		Repair:    NewRepairBackoff(),
		members:   make(map[id.NodeId]struct{}),
	}
}

// Join adds peer to the swarm's membership.
func (r *Router) Join(peer id.NodeId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[peer] = struct{}{}
	r.log.Debugf("peer joined: %s", peer)
}

// Leave removes peer from the swarm's membership and clears any interest it
// held in any state.
func (r *Router) Leave(peer id.NodeId) {
	r.mu.Lock()
	delete(r.members, peer)
	r.mu.Unlock()
	r.Interest.Drop(peer)
	r.log.Debugf("peer left: %s", peer)
}

// Members returns the current swarm membership, including self.
func (r *Router) Members() []id.NodeId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]id.NodeId, 0, len(r.members)+1)
	out = append(out, r.self)
	for m := range r.members {
		out = append(out, m)
	}
	return out
}

// MemberCount returns the current swarm size, including self.
func (r *Router) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members) + 1
}

// Route computes this node's propagation fanout for a freshly-applied event
// on state, given the node's current degradation level.
func (r *Router) Route(state id.StateId, level id.DegradationLevel) []Outbound {
	shape := SelectShape(r.MemberCount(), level)
	return Fanout(r.self, state, shape, r.Authority, r.Interest, r.Members())
}
