package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	oteltrace "go.opentelemetry.io/otel/trace"

	"luxview/internal/widget"
)

// DefaultServiceName is reported when no service name is configured.
const DefaultServiceName = "luxview"

const tracerName = "luxview/widget"

// NewTracerProvider creates a provider exporting to an OTLP/HTTP endpoint.
// It returns nil when endpoint is empty (tracing disabled).
func NewTracerProvider(ctx context.Context, endpoint, serviceName string) (*sdktrace.TracerProvider, error) {
	if endpoint == "" {
		return nil, nil
	}
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: otlp exporter: %w", err)
	}
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

// SpanLogger records every widget event as a zero-length span.
type SpanLogger struct {
	tracer  oteltrace.Tracer
	session string
}

var _ widget.EventLogger = (*SpanLogger)(nil)

// NewSpanLogger creates an event sink on tp.
func NewSpanLogger(tp oteltrace.TracerProvider, session string) *SpanLogger {
	return &SpanLogger{tracer: tp.Tracer(tracerName), session: session}
}

// Log implements widget.EventLogger.
func (s *SpanLogger) Log(event string, payload interface{}) {
	_, span := s.tracer.Start(context.Background(), "widget."+event)
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("luxview.session.id", s.session),
		attribute.String("luxview.event", event),
	}
	switch p := payload.(type) {
	case widget.ExportMap:
		attrs = append(attrs,
			attribute.StringSlice("luxview.export.keys", p.Keys()),
			attribute.Int("luxview.export.items", exportItems(p)),
		)
		if b, err := json.Marshal(p); err == nil {
			attrs = append(attrs, attribute.String("luxview.payload", string(b)))
		}
	case string:
		if p != "" {
			attrs = append(attrs, attribute.String("luxview.payload", p))
		}
	}
	span.SetAttributes(attrs...)
}
