package state

import (
	"sync"

	"github.com/rafaelsistems/elara/pkg/id"
)

// FieldStore aggregates the fields a node holds, keyed by StateId, creating
// them lazily under a default configuration on first access.
type FieldStore struct {
	mu            sync.RWMutex
	fields        map[id.StateId]*Field
	defaultConfig FieldConfig
}

// NewFieldStore returns an empty store that creates new fields with
// defaultConfig.
func NewFieldStore(defaultConfig FieldConfig) *FieldStore {
	return &FieldStore{
		fields:        make(map[id.StateId]*Field),
		defaultConfig: defaultConfig,
	}
}

// Get returns the field for id, creating it with the store's default
// configuration if it doesn't already exist.
func (s *FieldStore) Get(stateID id.StateId) *Field {
	s.mu.RLock()
	f, ok := s.fields[stateID]
	s.mu.RUnlock()
	if ok {
		return f
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.fields[stateID]; ok {
		return f
	}
	f = NewField(stateID, s.defaultConfig)
	s.fields[stateID] = f
	return f
}

// Lookup returns the field for id without creating it.
func (s *FieldStore) Lookup(stateID id.StateId) (*Field, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fields[stateID]
	return f, ok
}

// Apply routes event to its target state's field, creating the field on
// first use.
func (s *FieldStore) Apply(event Event) (ApplyResult, error) {
	return s.Get(event.TargetState).Apply(event)
}

// Ids returns the set of StateIds currently held by the store.
func (s *FieldStore) Ids() []id.StateId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]id.StateId, 0, len(s.fields))
	for k := range s.fields {
		out = append(out, k)
	}
	return out
}

// ActivatePredictions runs the prediction-buffer activation pass on every
// field currently held by the store.
func (s *FieldStore) ActivatePredictions(now id.StateTime) {
	s.mu.RLock()
	fields := make([]*Field, 0, len(s.fields))
	for _, f := range s.fields {
		fields = append(fields, f)
	}
	s.mu.RUnlock()

	for _, f := range fields {
		f.ActivatePredictions(now)
	}
}

// Project projects every field currently held by the store at time now.
func (s *FieldStore) Project(now id.StateTime) []FieldSnapshot {
	s.mu.RLock()
	fields := make([]*Field, 0, len(s.fields))
	for _, f := range s.fields {
		fields = append(fields, f)
	}
	s.mu.RUnlock()

	out := make([]FieldSnapshot, len(fields))
	for i, f := range fields {
		out[i] = f.Project(now)
	}
	return out
}
