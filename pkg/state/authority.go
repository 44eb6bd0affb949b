package state

import (
	"sync"

	"github.com/rafaelsistems/elara/pkg/id"
)

// AuthorityGrant grants node the right to mutate a target state within
// [ValidFrom, ValidUntil). ValidUntil of 0 means no expiry.
type AuthorityGrant struct {
	Node       id.NodeId
	ValidFrom  id.StateTime
	ValidUntil id.StateTime
}

// validAt reports whether the grant covers the given time.
func (g AuthorityGrant) validAt(t id.StateTime) bool {
	if t < g.ValidFrom {
		return false
	}
	if g.ValidUntil != 0 && t >= g.ValidUntil {
		return false
	}
	return true
}

// AuthorityTable is a per-field map of NodeId to AuthorityGrant, shaped
// like an acl.Checker (a mutex-guarded entry set with a narrow check
// method) but keyed directly by node since authority here is granted per
// (NodeId, StateId) rather than evaluated against a general ACL entry
// list.
type AuthorityTable struct {
	mu     sync.RWMutex
	grants map[id.NodeId]AuthorityGrant
}

// NewAuthorityTable returns an empty authority table.
func NewAuthorityTable() *AuthorityTable {
	return &AuthorityTable{grants: make(map[id.NodeId]AuthorityGrant)}
}

// Grant records (or replaces) the authority grant for node.
func (t *AuthorityTable) Grant(grant AuthorityGrant) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.grants[grant.Node] = grant
}

// Revoke removes node's authority grant entirely.
func (t *AuthorityTable) Revoke(node id.NodeId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.grants, node)
}

// Check reports whether node holds a valid grant at time t.
func (t *AuthorityTable) Check(node id.NodeId, at id.StateTime) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	grant, ok := t.grants[node]
	return ok && grant.validAt(at)
}

// Grants returns a copy of all current grants, for diagnostics.
func (t *AuthorityTable) Grants() []AuthorityGrant {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]AuthorityGrant, 0, len(t.grants))
	for _, g := range t.grants {
		out = append(out, g)
	}
	return out
}
