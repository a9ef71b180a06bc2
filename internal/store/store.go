// Package store implements the shared property bag the widget synchronizes
// through. A Store holds committed key/value properties, buffers local sets
// until Commit, and notifies subscribers when another writer changes keys.
//
// Values cross the boundary as the generic shapes encoding/json produces
// (map[string]interface{}, []interface{}, float64, string, bool, nil); each
// backend normalizes on commit so memory, file and redis behave the same.
package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"luxview/internal/jsonutil"
)

// ErrClosed is returned by Commit after Close.
var ErrClosed = errors.New("store: closed")

// Store is the capability surface the widget needs from the host model.
type Store interface {
	// Get returns the committed value for key.
	Get(key string) (interface{}, bool)
	// Set records a pending value; it is not visible to other writers until Commit.
	Set(key string, value interface{})
	// Commit flushes pending sets.
	Commit(ctx context.Context) error
	// OnChange subscribes to changes made by other writers.
	OnChange(fn func(ChangeSet)) (unsubscribe func())
	Close() error
}

// ChangeSet is the set of keys touched by one external change.
type ChangeSet map[string]struct{}

// NewChangeSet builds a ChangeSet from keys.
func NewChangeSet(keys ...string) ChangeSet {
	cs := make(ChangeSet, len(keys))
	for _, k := range keys {
		cs[k] = struct{}{}
	}
	return cs
}

// Has reports whether key changed.
func (c ChangeSet) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// Keys returns the changed keys in sorted order.
func (c ChangeSet) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Option configures a backend.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	writerID string
	debounce time.Duration
}

func defaultOptions() options {
	return options{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		writerID: uuid.NewString(),
		debounce: 50 * time.Millisecond,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for background failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWriterID overrides the random writer id used to suppress self-notifications.
func WithWriterID(id string) Option {
	return func(o *options) {
		if id != "" {
			o.writerID = id
		}
	}
}

// WithDebounce sets how long the file backend waits for writes to settle.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// bag is the committed/pending state shared by every backend.
type bag struct {
	mu      sync.RWMutex
	props   map[string]interface{}
	pending map[string]interface{}
	version int64
	closed  bool

	subMu   sync.Mutex
	subs    map[int]func(ChangeSet)
	nextSub int
}

func (b *bag) init() {
	b.props = make(map[string]interface{})
	b.pending = make(map[string]interface{})
	b.subs = make(map[int]func(ChangeSet))
}

func (b *bag) get(key string) (interface{}, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.props[key]
	return v, ok
}

func (b *bag) set(key string, value interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[key] = value
}

// takePending normalizes and clears the pending sets. Must be called with b.mu held.
func (b *bag) takePending() (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(b.pending))
	for k, v := range b.pending {
		n, err := jsonutil.Normalize(v)
		if err != nil {
			return nil, &CommitError{Key: k, Err: err}
		}
		out[k] = n
	}
	b.pending = make(map[string]interface{})
	return out, nil
}

// merge writes values into props and returns the keys whose value changed.
// When replaceAll is set, committed keys absent from values are removed.
// Must be called with b.mu held.
func (b *bag) merge(values map[string]interface{}, replaceAll bool) ChangeSet {
	changed := make(ChangeSet)
	for k, v := range values {
		if old, ok := b.props[k]; !ok || !reflect.DeepEqual(old, v) {
			changed[k] = struct{}{}
		}
		b.props[k] = v
	}
	if replaceAll {
		for k := range b.props {
			if _, ok := values[k]; !ok {
				delete(b.props, k)
				changed[k] = struct{}{}
			}
		}
	}
	return changed
}

func (b *bag) snapshot() map[string]interface{} {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]interface{}, len(b.props))
	for k, v := range b.props {
		out[k] = v
	}
	return out
}

func (b *bag) subscribe(fn func(ChangeSet)) func() {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	return func() {
		b.subMu.Lock()
		defer b.subMu.Unlock()
		delete(b.subs, id)
	}
}

// notify calls every subscriber outside the lock.
func (b *bag) notify(cs ChangeSet) {
	if len(cs) == 0 {
		return
	}
	b.subMu.Lock()
	fns := make([]func(ChangeSet), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.subMu.Unlock()
	for _, fn := range fns {
		fn(cs)
	}
}

// CommitError reports a property that could not be encoded on commit.
type CommitError struct {
	Key string
	Err error
}

func (e *CommitError) Error() string {
	return "store: encode property " + e.Key + ": " + e.Err.Error()
}

func (e *CommitError) Unwrap() error { return e.Err }
