package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"luxview/internal/widget"
)

func TestNewTracerProvider_DisabledWithoutEndpoint(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), "", "")
	require.NoError(t, err)
	assert.Nil(t, tp)
}

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	out := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		out[string(kv.Key)] = kv.Value
	}
	return out
}

func TestSpanLogger_RecordsEvents(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	defer tp.Shutdown(context.Background())

	sink := NewSpanLogger(tp, "s-1")
	sink.Log(widget.EventSwitchTab, "Occurrence")
	sink.Log(widget.EventDelete, widget.ExportMap{Actions: map[string][]int{"Correlation": {1}}})

	spans := exp.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, "widget.switchTab", spans[0].Name)
	attrs := attrMap(spans[0].Attributes)
	assert.Equal(t, "s-1", attrs["luxview.session.id"].AsString())
	assert.Equal(t, "Occurrence", attrs["luxview.payload"].AsString())

	assert.Equal(t, "widget.deleteBtnClick", spans[1].Name)
	attrs = attrMap(spans[1].Attributes)
	assert.Equal(t, []string{"Correlation"}, attrs["luxview.export.keys"].AsStringSlice())
	assert.Equal(t, int64(1), attrs["luxview.export.items"].AsInt64())
	assert.JSONEq(t, `{"Correlation":[1]}`, attrs["luxview.payload"].AsString())
}
