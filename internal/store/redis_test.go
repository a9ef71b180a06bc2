package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedis_CommitWritesHashAndVersion(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	r, err := OpenRedis(ctx, client, "lux", WithWriterID("widget"))
	require.NoError(t, err)
	defer r.Close()

	r.Set("_exportedVisIdxs", map[string][]int{"Correlation": {0, 2}})
	require.NoError(t, r.Commit(ctx))

	assert.Equal(t, `{"Correlation":[0,2]}`, mr.HGet("lux:props", "_exportedVisIdxs"))
	v, err := mr.Get("lux:version")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestRedis_OpenLoadsExistingProps(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.HSet("lux:props", "intent", `"Education"`)
	require.NoError(t, mr.Set("lux:version", "7"))

	r, err := OpenRedis(context.Background(), client, "lux")
	require.NoError(t, err)
	defer r.Close()

	v, ok := r.Get("intent")
	require.True(t, ok)
	assert.Equal(t, "Education", v)
}

func TestRedis_OtherWriterNotifies(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	widget, err := OpenRedis(ctx, client, "lux", WithWriterID("widget"))
	require.NoError(t, err)
	defer widget.Close()
	kernel, err := OpenRedis(ctx, client, "lux", WithWriterID("kernel"))
	require.NoError(t, err)
	defer kernel.Close()

	var widgetSeen, kernelSeen changeRecorder
	widget.OnChange(widgetSeen.record)
	kernel.OnChange(kernelSeen.record)

	kernel.Set("recommendations", []map[string]interface{}{{"action": "Correlation", "vspec": []interface{}{}}})
	require.NoError(t, kernel.Commit(ctx))

	require.Eventually(t, func() bool { return widgetSeen.keys()["recommendations"] }, 2*time.Second, 10*time.Millisecond)
	v, ok := widget.Get("recommendations")
	require.True(t, ok)
	assert.Len(t, v, 1)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, kernelSeen.keys(), "own commits are not echoed")
}

func TestRedis_EmptyCommitIsNoop(t *testing.T) {
	mr, client := newTestRedis(t)
	r, err := OpenRedis(context.Background(), client, "lux")
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Commit(context.Background()))
	assert.False(t, mr.Exists("lux:version"))
}

func TestRedis_CommitAfterClose(t *testing.T) {
	_, client := newTestRedis(t)
	r, err := OpenRedis(context.Background(), client, "lux")
	require.NoError(t, err)
	require.NoError(t, r.Close())
	r.Set("k", 1)
	assert.ErrorIs(t, r.Commit(context.Background()), ErrClosed)
}
