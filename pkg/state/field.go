// Package state implements the state reconciliation engine: per-StateId
// fields with authority checking, causal delivery, deterministic merge of
// concurrent mutations, and divergence/partition tracking. The module
// split (field.go, reconcile.go) mirrors a field/reconcile module split
// used elsewhere for the same concerns.
package state

import (
	"sort"
	"sync"

	"github.com/rafaelsistems/elara/pkg/id"
)

// depKey identifies a single (source, seq) causal dependency.
type depKey struct {
	Source id.NodeId
	Seq    uint32
}

type appendEntry struct {
	Value      []byte
	TimeIntent id.StateTime
	Source     id.NodeId
}

type kvEntry struct {
	Value      []byte
	TimeIntent id.StateTime
	Source     id.NodeId
}

type patchEntry struct {
	Start, End int
	TimeIntent id.StateTime
	Source     id.NodeId
}

// Field is a single mutable datum: its current content (reconstructed from
// the events applied to it), its version vector, its authority table, and
// the bookkeeping (dependency queue, prediction buffer, size/entropy
// accounting, divergence/partition state) the reconciliation algorithm
// needs.
type Field struct {
	ID id.StateId

	mu        sync.Mutex
	version   id.VersionVector
	Authority *AuthorityTable

	appendLog []appendEntry
	kv        map[string]kvEntry
	replace   *kvEntry // whole-value replace, nil if never replaced
	base      []byte   // base buffer patches are applied against
	patches   []patchEntry

	pending   map[depKey][]Event
	predicted []Event

	sizeBytes int
	entropy   int

	sizeCap       int
	entropyCap    int
	depQueueCap   int
	predictionCap int

	divergence *PartitionTracker
}

// FieldConfig bounds a field's memory and the divergence/partition policy
// applied to it.
type FieldConfig struct {
	SizeCap             int
	EntropyCap          int
	DepQueueCap         int
	PredictionCap       int
	DivergenceThreshold float64
	PartitionCooldown   int64 // ms
}

// NewField returns an empty field with the given id and bounds.
func NewField(stateID id.StateId, cfg FieldConfig) *Field {
	return &Field{
		ID:            stateID,
		version:       id.NewVersionVector(),
		Authority:     NewAuthorityTable(),
		kv:            make(map[string]kvEntry),
		pending:       make(map[depKey][]Event),
		sizeCap:       cfg.SizeCap,
		entropyCap:    cfg.EntropyCap,
		depQueueCap:   cfg.DepQueueCap,
		predictionCap: cfg.PredictionCap,
		divergence:    NewPartitionTracker(cfg.DivergenceThreshold, cfg.PartitionCooldown),
	}
}

// Version returns a copy of the field's current version vector.
func (f *Field) Version() id.VersionVector {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version
}

// FieldSnapshot is the deterministic, immutable reduction of a field's
// current content, produced by Project.
type FieldSnapshot struct {
	ID      id.StateId
	Version id.VersionVector
	Append  []byte
	KV      map[string][]byte
	Replace []byte
}

// Project deterministically reduces the field's current state at the given
// state-clock time, activating any prediction-buffered events whose
// TimeIntent has arrived.
func (f *Field) Project(now id.StateTime) FieldSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.activatePredictedLocked(now)

	ordered := make([]appendEntry, len(f.appendLog))
	copy(ordered, f.appendLog)
	sort.SliceStable(ordered, func(i, j int) bool { return appendLess(ordered[i], ordered[j]) })

	var appendValue []byte
	for _, e := range ordered {
		appendValue = append(appendValue, e.Value...)
	}

	kvCopy := make(map[string][]byte, len(f.kv))
	for k, v := range f.kv {
		kvCopy[k] = v.Value
	}

	var replaceValue []byte
	if f.replace != nil {
		replaceValue = f.replace.Value
	} else if f.base != nil {
		replaceValue = append([]byte(nil), f.base...)
	}

	return FieldSnapshot{
		ID:      f.ID,
		Version: f.version,
		Append:  appendValue,
		KV:      kvCopy,
		Replace: replaceValue,
	}
}

// appendLess is the total order used to linearize concurrent Appends:
// (time_intent, source) ascending, source breaking ties.
func appendLess(a, b appendEntry) bool {
	if a.TimeIntent != b.TimeIntent {
		return a.TimeIntent < b.TimeIntent
	}
	return a.Source < b.Source
}
