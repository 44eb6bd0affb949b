// Package diffusion decides how state propagates through a swarm of peers:
// who is authoritative for a state, who merely observes it, and what shape
// the propagation graph should take given swarm size and the node's current
// degradation level. It is deliberately not a CDN-style relay: there is no
// central fan-out server, only peer-to-peer routing decisions made locally
// by each node from the same swarm membership view.
package diffusion

import (
	"sync"

	"github.com/rafaelsistems/elara/pkg/id"
)

// AuthorityGraph tracks, per StateId, which peer is authoritative for it.
// This mirrors pkg/state's AuthorityTable in shape but answers a routing
// question ("who do I ask for the canonical value / who do I prioritize
// relaying from") rather than a permission question ("can this source
// mutate this state").
type AuthorityGraph struct {
	mu      sync.RWMutex
	holders map[id.StateId]id.NodeId
}

// NewAuthorityGraph returns an empty authority graph.
func NewAuthorityGraph() *AuthorityGraph {
	return &AuthorityGraph{holders: make(map[id.StateId]id.NodeId)}
}

// SetAuthority records node as the authoritative source for state.
func (g *AuthorityGraph) SetAuthority(state id.StateId, node id.NodeId) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.holders[state] = node
}

// Authority returns the node currently authoritative for state, if known.
func (g *AuthorityGraph) Authority(state id.StateId) (id.NodeId, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.holders[state]
	return n, ok
}

// Clear removes any recorded authority for state, e.g. when its holder
// leaves the swarm.
func (g *AuthorityGraph) Clear(state id.StateId) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.holders, state)
}
