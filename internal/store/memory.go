package store

import (
	"context"

	"luxview/internal/jsonutil"
)

// Memory is an in-process Store. Apply plays the role of the other writer
// (the kernel side) and is the only path that notifies subscribers.
type Memory struct {
	bag
}

// Ensure Memory implements Store.
var _ Store = (*Memory)(nil)

// NewMemory creates a Memory store seeded with initial properties.
func NewMemory(initial map[string]interface{}) (*Memory, error) {
	m := &Memory{}
	m.init()
	if len(initial) > 0 {
		normalized, err := normalizeAll(initial)
		if err != nil {
			return nil, err
		}
		m.merge(normalized, false)
	}
	return m, nil
}

// Get implements Store.
func (m *Memory) Get(key string) (interface{}, bool) { return m.get(key) }

// Set implements Store.
func (m *Memory) Set(key string, value interface{}) { m.set(key, value) }

// Commit implements Store.
func (m *Memory) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	values, err := m.takePending()
	if err != nil {
		return err
	}
	m.merge(values, false)
	m.version++
	return nil
}

// Apply replaces the given keys as another writer would and notifies
// subscribers of the keys whose value actually changed.
func (m *Memory) Apply(values map[string]interface{}) error {
	normalized, err := normalizeAll(values)
	if err != nil {
		return err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	changed := m.merge(normalized, false)
	if len(changed) > 0 {
		m.version++
	}
	m.mu.Unlock()
	m.notify(changed)
	return nil
}

// Version returns the number of commits and applied changes so far.
func (m *Memory) Version() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Snapshot returns a copy of every committed property.
func (m *Memory) Snapshot() map[string]interface{} { return m.snapshot() }

// OnChange implements Store.
func (m *Memory) OnChange(fn func(ChangeSet)) func() { return m.subscribe(fn) }

// Close implements Store.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func normalizeAll(values map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		n, err := jsonutil.Normalize(v)
		if err != nil {
			return nil, &CommitError{Key: k, Err: err}
		}
		out[k] = n
	}
	return out, nil
}
