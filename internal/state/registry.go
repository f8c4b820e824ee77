package state

import (
	"iter"
	"slices"
	"sync"
)

// Registry is the insertion-ordered set of live strokes shared by the input,
// fade and render goroutines. Records are compared by pointer.
type Registry struct {
	mu      sync.RWMutex
	records []*StrokeRecord
}

func NewRegistry() *Registry {
	return &Registry{records: make([]*StrokeRecord, 0, 16)}
}

// Append adds rec at the tail.
func (r *Registry) Append(rec *StrokeRecord) {
	if rec == nil {
		return
	}
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
}

// Snapshot returns a sequence over the records held at call time, oldest
// first. Mutations made while the sequence is consumed are not observed.
func (r *Registry) Snapshot() iter.Seq[*StrokeRecord] {
	r.mu.RLock()
	snap := slices.Clone(r.records)
	r.mu.RUnlock()

	return func(yield func(*StrokeRecord) bool) {
		for _, rec := range snap {
			if !yield(rec) {
				return
			}
		}
	}
}

// Records returns a copy of the held records.
func (r *Registry) Records() []*StrokeRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.records)
}

// Remove deletes rec and reports whether it was present. Removing an absent
// record is a no-op.
func (r *Registry) Remove(rec *StrokeRecord) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.Index(r.records, rec)
	if i < 0 {
		return false
	}
	r.records = slices.Delete(r.records, i, i+1)
	return true
}

func (r *Registry) Contains(rec *StrokeRecord) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Contains(r.records, rec)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// MarkFadeEligible flips the eligibility flag of a single record.
func (r *Registry) MarkFadeEligible(rec *StrokeRecord) {
	if rec != nil {
		rec.MarkFadeEligible()
	}
}

// MarkAllFadeEligible flips every held record and returns how many were
// newly marked.
func (r *Registry) MarkAllFadeEligible() int {
	n := 0
	for rec := range r.Snapshot() {
		if !rec.FadeEligible() {
			rec.MarkFadeEligible()
			n++
		}
	}
	return n
}

// Animating reports whether any held record is fading.
func (r *Registry) Animating() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.FadeEligible() {
			return true
		}
	}
	return false
}
