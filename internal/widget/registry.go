package widget

import "sort"

// Registry records the current multi-selection of every tab.
// Indices are not validated here; consumers skip positions that are out of range.
type Registry struct {
	tabs     map[TabID][]int
	order    []TabID
	onChange func()
}

// NewRegistry creates an empty registry. onChange runs after every mutation.
func NewRegistry(onChange func()) *Registry {
	return &Registry{
		tabs:     make(map[TabID][]int),
		onChange: onChange,
	}
}

// Set overwrites the selection of one tab. Indices are de-duplicated and
// kept ascending so deletions can shift positions in a single pass.
// A nil or empty selection still marks the tab as present.
func (r *Registry) Set(tab TabID, indices []int) {
	if _, ok := r.tabs[tab]; !ok {
		r.order = append(r.order, tab)
	}
	r.tabs[tab] = normalizeIndices(indices)
	r.changed()
}

// Get returns a copy of the selection for tab.
func (r *Registry) Get(tab TabID) []int {
	return append([]int(nil), r.tabs[tab]...)
}

// Has reports whether tab has ever been set since the last clear.
func (r *Registry) Has(tab TabID) bool {
	_, ok := r.tabs[tab]
	return ok
}

// Tabs returns the tabs present, in the order they were first set.
func (r *Registry) Tabs() []TabID {
	return append([]TabID(nil), r.order...)
}

// All returns a copy of the whole registry.
func (r *Registry) All() map[TabID][]int {
	out := make(map[TabID][]int, len(r.tabs))
	for k, v := range r.tabs {
		out[k] = append([]int(nil), v...)
	}
	return out
}

// Len returns the number of tabs present.
func (r *Registry) Len() int { return len(r.tabs) }

// Clear drops every selection.
func (r *Registry) Clear() {
	r.tabs = make(map[TabID][]int)
	r.order = nil
	r.changed()
}

// Retain keeps only the tabs for which keep returns true.
func (r *Registry) Retain(keep func(TabID) bool) {
	order := r.order[:0]
	for _, tab := range r.order {
		if keep(tab) {
			order = append(order, tab)
			continue
		}
		delete(r.tabs, tab)
	}
	r.order = order
	r.changed()
}

func (r *Registry) changed() {
	if r.onChange != nil {
		r.onChange()
	}
}

func normalizeIndices(indices []int) []int {
	out := make([]int, 0, len(indices))
	seen := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
