package main

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxview/internal/store"
)

// stallingWriter blocks every Write until released, like a terminal
// nobody is reading.
type stallingWriter struct {
	mu      sync.Mutex
	buf     strings.Builder
	first   chan struct{}
	once    sync.Once
	release chan struct{}
}

func newStallingWriter() *stallingWriter {
	return &stallingWriter{first: make(chan struct{}), release: make(chan struct{})}
}

func (w *stallingWriter) Write(p []byte) (int, error) {
	w.once.Do(func() { close(w.first) })
	<-w.release
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *stallingWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestWatchProps_StalledOutputDoesNotBlockStore(t *testing.T) {
	mem, err := store.NewMemory(nil)
	require.NoError(t, err)
	out := newStallingWriter()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watchProps(ctx, out, mem) }()

	// Keep writing until the watcher has subscribed and is stuck printing.
	n := 0
	require.Eventually(t, func() bool {
		n++
		_ = mem.Apply(map[string]interface{}{"_exportedVisIdxs": map[string]interface{}{"Correlation": []interface{}{float64(n)}}})
		select {
		case <-out.first:
			return true
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	applied := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			_ = mem.Apply(map[string]interface{}{"deletedIndices": map[string]interface{}{"Correlation": []interface{}{float64(i)}}})
		}
		close(applied)
	}()
	select {
	case <-applied:
	case <-time.After(2 * time.Second):
		t.Fatal("store notifications blocked behind stalled output")
	}

	close(out.release)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watchProps did not stop")
	}
	assert.Contains(t, out.String(), "_exportedVisIdxs")
	require.NoError(t, mem.Close())
}
