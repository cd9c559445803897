// Package domain defines the core domain models for SimSync.
package domain

import "sort"

// Snapshot is a fully formed view of the world state keyed by model name.
//
// A snapshot that has been published by a snapshot buffer must not be
// mutated; readers always receive their own deep copy.
type Snapshot map[string]ModelState

// Clone returns a deep copy of the snapshot. Nested Extra values are
// copied recursively so the copy shares no mutable memory with s.
// A nil snapshot clones to an empty, non-nil one.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for name, state := range s {
		out[name] = state.Clone()
	}
	return out
}

// Names returns the model names in sorted order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the state of the named model.
func (s Snapshot) Get(name string) (ModelState, error) {
	state, ok := s[name]
	if !ok {
		return ModelState{}, ErrModelNotFound.WithDetails(name)
	}
	return state, nil
}
