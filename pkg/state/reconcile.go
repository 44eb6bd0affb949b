package state

import "github.com/rafaelsistems/elara/pkg/id"

// ApplyResult reports what happened to an event handed to Apply.
type ApplyResult int

const (
	// Applied means the event was accepted and the field mutated (or the
	// mutation was a no-op replay of an already-applied event).
	Applied ApplyResult = iota
	// Buffered means the event is missing a causal dependency and was
	// queued to be retried once that dependency arrives.
	Buffered
)

// Apply implements the five-step admission algorithm: authority check,
// causality check (direct apply or dependency buffering), concurrency
// resolution (deterministic per-op merge), bounds & entropy accounting, and
// finally the version-vector update. Apply is idempotent: re-applying an
// event already reflected in the field's version vector is a no-op success.
func (f *Field) Apply(event Event) (ApplyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applyLocked(event)
}

func (f *Field) applyLocked(event Event) (ApplyResult, error) {
	// Idempotency: an event at or below the already-observed seq for its
	// source has already been reflected (or superseded) in the version
	// vector; re-applying it must not mutate the field twice.
	if f.version.Get(event.Source) >= uint64(event.ID.Seq) {
		return Applied, nil
	}

	// 1. Authority check.
	if !f.Authority.Check(event.Source, event.TimeIntent) {
		return Applied, ErrUnauthorized
	}

	// 2. Causality check. The event's own predecessor from the same source
	// is an implicit dependency on top of its declared version_ref, so
	// per-source ordering is enforced by the same buffering mechanism as
	// cross-source causality.
	deps := event.VersionRef
	if event.ID.Seq > 1 {
		deps = deps.Increment(event.Source, uint64(event.ID.Seq-1))
	}
	if missing, ok := f.firstMissingDependency(deps); ok {
		if len(f.pending) >= f.depQueueCap && !f.hasPendingKey(missing) {
			return Applied, ErrMissingDependency
		}
		f.pending[missing] = append(f.pending[missing], event)
		return Buffered, nil
	}

	// 3. Concurrency resolution + 4. bounds & entropy, together since the
	// bounds check must see the mutation's prospective footprint before
	// it's committed.
	if err := f.checkBounds(event); err != nil {
		return Applied, err
	}
	f.mergeApply(event)

	// 5. Version vector update.
	f.version = f.version.Increment(event.Source, uint64(event.ID.Seq))

	f.releasePending(event.Source, event.ID.Seq)
	return Applied, nil
}

// firstMissingDependency returns the first (source, seq) entry in deps not
// yet dominated by the field's current version vector, if any.
func (f *Field) firstMissingDependency(deps id.VersionVector) (depKey, bool) {
	for node, seq := range deps {
		if f.version.Get(node) < seq {
			return depKey{Source: node, Seq: uint32(seq)}, true
		}
	}
	return depKey{}, false
}

func (f *Field) hasPendingKey(k depKey) bool {
	_, ok := f.pending[k]
	return ok
}

// releasePending retries every event that was waiting on (source, seq),
// recursively releasing further events those unblock in turn.
func (f *Field) releasePending(source id.NodeId, seq uint32) {
	key := depKey{Source: source, Seq: seq}
	waiting, ok := f.pending[key]
	if !ok {
		return
	}
	delete(f.pending, key)
	for _, ev := range waiting {
		f.applyLocked(ev)
	}
}

// checkBounds reports whether applying event's mutation would exceed the
// field's size or entropy budget.
func (f *Field) checkBounds(event Event) error {
	if f.sizeCap > 0 && f.sizeBytes+event.Mutation.Size() > f.sizeCap {
		return ErrStateBoundsExceeded
	}
	if f.entropyCap > 0 && f.entropy+int(event.EntropyHint) > f.entropyCap {
		return ErrEntropyExceeded
	}
	return nil
}

// mergeApply commits event's mutation using the deterministic per-op merge
// rule. Because every mutation is inserted via the same total order
// ((time_intent, source) ascending) regardless of arrival order, applying
// any causally-valid permutation of a set of events converges to the same
// projected content.
func (f *Field) mergeApply(event Event) {
	m := event.Mutation
	f.sizeBytes += m.Size()
	f.entropy += int(event.EntropyHint)

	switch m.Kind {
	case MutationAppend:
		f.appendLog = append(f.appendLog, appendEntry{
			Value:      m.AppendValue,
			TimeIntent: event.TimeIntent,
			Source:     event.Source,
		})

	case MutationSet:
		existing, ok := f.kv[m.SetKey]
		entry := kvEntry{Value: m.SetValue, TimeIntent: event.TimeIntent, Source: event.Source}
		if !ok || lwwWins(entry, existing) {
			f.kv[m.SetKey] = entry
		}

	case MutationReplace:
		entry := kvEntry{Value: m.ReplaceValue, TimeIntent: event.TimeIntent, Source: event.Source}
		if f.replace == nil || lwwWins(entry, *f.replace) {
			f.replace = &entry
		}

	case MutationPatch:
		f.applyPatch(m, event)
	}
}

// lwwWins reports whether candidate should win over existing under
// last-writer-wins ordered by (time_intent, source) ascending, ties broken
// by source id ascending — the later writer in that order wins.
func lwwWins(candidate, existing kvEntry) bool {
	if candidate.TimeIntent != existing.TimeIntent {
		return candidate.TimeIntent > existing.TimeIntent
	}
	return candidate.Source > existing.Source
}

// applyPatch applies a byte-range patch if it doesn't overlap any
// previously-applied patch; an overlapping patch is downgraded to a
// Replace of the union range (base[0:end] including the new bytes),
// resolved with the same LWW ordering as an explicit Replace.
func (f *Field) applyPatch(m MutationOp, event Event) {
	for _, p := range f.patches {
		if rangesOverlap(p.Start, p.End, m.PatchStart, m.PatchEnd) {
			wideStart, wideEnd := p.Start, p.End
			if m.PatchStart < wideStart {
				wideStart = m.PatchStart
			}
			if m.PatchEnd > wideEnd {
				wideEnd = m.PatchEnd
			}
			widened := make([]byte, wideEnd)
			copy(widened, f.base)
			copy(widened[m.PatchStart:m.PatchEnd], m.PatchBytes)
			entry := kvEntry{Value: widened, TimeIntent: event.TimeIntent, Source: event.Source}
			if f.replace == nil || lwwWins(entry, *f.replace) {
				f.replace = &entry
			}
			return
		}
	}

	if f.base == nil {
		f.base = make([]byte, m.PatchEnd)
	} else if len(f.base) < m.PatchEnd {
		grown := make([]byte, m.PatchEnd)
		copy(grown, f.base)
		f.base = grown
	}
	copy(f.base[m.PatchStart:m.PatchEnd], m.PatchBytes)
	f.patches = append(f.patches, patchEntry{
		Start: m.PatchStart, End: m.PatchEnd,
		TimeIntent: event.TimeIntent, Source: event.Source,
	})
}

func rangesOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// activatePredictedLocked moves any prediction-buffered event whose
// TimeIntent has arrived (now >= TimeIntent) back through applyLocked. The
// caller must hold f.mu.
func (f *Field) activatePredictedLocked(now id.StateTime) {
	if len(f.predicted) == 0 {
		return
	}
	remaining := f.predicted[:0]
	ready := make([]Event, 0)
	for _, ev := range f.predicted {
		if ev.TimeIntent <= now {
			ready = append(ready, ev)
		} else {
			remaining = append(remaining, ev)
		}
	}
	f.predicted = remaining
	for _, ev := range ready {
		f.applyLocked(ev)
	}
}

// ActivatePredictions runs the prediction-buffer activation pass for this
// field at time now, independent of Project. The runtime loop calls this at
// its dedicated prediction-generation stage; Project also performs the same
// activation (idempotently) so a direct Project call never misses a
// prediction whose time has arrived.
func (f *Field) ActivatePredictions(now id.StateTime) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activatePredictedLocked(now)
}

// BufferPrediction admits event into the prediction buffer, to be activated
// once the state clock reaches its TimeIntent. Overflow silently drops the
// oldest buffered prediction rather than growing unbounded.
func (f *Field) BufferPrediction(event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.predictionCap > 0 && len(f.predicted) >= f.predictionCap {
		f.predicted = f.predicted[1:]
	}
	f.predicted = append(f.predicted, event)
}
