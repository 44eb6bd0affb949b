package diffusion

import (
	"sync"

	"github.com/rafaelsistems/elara/pkg/id"
)

// InterestSet tracks, per StateId, the set of peers that have subscribed to
// observe it without holding authority over it — e.g. viewers of a
// livestream's visual state, who never mutate it but must receive every
// update.
type InterestSet struct {
	mu        sync.RWMutex
	observers map[id.StateId]map[id.NodeId]struct{}
}

// NewInterestSet returns an empty interest set.
func NewInterestSet() *InterestSet {
	return &InterestSet{observers: make(map[id.StateId]map[id.NodeId]struct{})}
}

// Subscribe registers node as an observer of state.
func (s *InterestSet) Subscribe(state id.StateId, node id.NodeId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.observers[state]
	if !ok {
		set = make(map[id.NodeId]struct{})
		s.observers[state] = set
	}
	set[node] = struct{}{}
}

// Unsubscribe removes node from state's observer set.
func (s *InterestSet) Unsubscribe(state id.StateId, node id.NodeId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.observers[state]; ok {
		delete(set, node)
		if len(set) == 0 {
			delete(s.observers, state)
		}
	}
}

// Observers returns the current observer set for state.
func (s *InterestSet) Observers(state id.StateId) []id.NodeId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.observers[state]
	out := make([]id.NodeId, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	return out
}

// Drop removes node from every state's observer set, e.g. on peer departure.
func (s *InterestSet) Drop(node id.NodeId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for state, set := range s.observers {
		delete(set, node)
		if len(set) == 0 {
			delete(s.observers, state)
		}
	}
}
