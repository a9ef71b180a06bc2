package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"luxview/internal/store"
)

// StoreRelay forwards store notifications into a running program.
// Push never blocks: keys collect until Run hands them on as one
// StoreChangedMsg, so the relay can subscribe before the program exists.
type StoreRelay struct {
	mu      sync.Mutex
	pending store.ChangeSet
	wake    chan struct{}
}

// NewStoreRelay returns an idle relay.
func NewStoreRelay() *StoreRelay {
	return &StoreRelay{wake: make(chan struct{}, 1)}
}

// Push records changed keys. It is safe to use as a store.OnChange callback.
func (r *StoreRelay) Push(cs store.ChangeSet) {
	if len(cs) == 0 {
		return
	}
	r.mu.Lock()
	if r.pending == nil {
		r.pending = make(store.ChangeSet, len(cs))
	}
	for k := range cs {
		r.pending[k] = struct{}{}
	}
	r.mu.Unlock()
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Pending returns the keys waiting to be delivered.
func (r *StoreRelay) Pending() store.ChangeSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(store.ChangeSet, len(r.pending))
	for k := range r.pending {
		out[k] = struct{}{}
	}
	return out
}

// Run delivers collected keys through send until ctx is done. send may
// block; pushes made meanwhile merge into the next message.
func (r *StoreRelay) Run(ctx context.Context, send func(tea.Msg)) {
	for {
		r.mu.Lock()
		cs := r.pending
		r.pending = nil
		r.mu.Unlock()
		if len(cs) > 0 {
			send(StoreChangedMsg{Keys: cs})
		}
		select {
		case <-ctx.Done():
			return
		case <-r.wake:
		}
	}
}
