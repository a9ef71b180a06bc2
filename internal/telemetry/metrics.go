package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"luxview/internal/widget"
)

// MetricsLogger counts widget events and the items they carry.
type MetricsLogger struct {
	events   *prometheus.CounterVec
	exported prometheus.Counter
	deleted  prometheus.Counter
}

var _ widget.EventLogger = (*MetricsLogger)(nil)

// NewMetricsLogger registers the widget collectors on reg.
func NewMetricsLogger(reg prometheus.Registerer) *MetricsLogger {
	factory := promauto.With(reg)
	return &MetricsLogger{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "luxview",
			Name:      "widget_events_total",
			Help:      "Widget interaction events by name",
		}, []string{"event"}),
		exported: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "luxview",
			Name:      "exported_items_total",
			Help:      "Items included in export actions",
		}),
		deleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "luxview",
			Name:      "deleted_items_total",
			Help:      "Items included in delete actions",
		}),
	}
}

// Log implements widget.EventLogger.
func (m *MetricsLogger) Log(event string, payload interface{}) {
	m.events.WithLabelValues(event).Inc()
	p, ok := payload.(widget.ExportMap)
	if !ok {
		return
	}
	switch event {
	case widget.EventExport:
		m.exported.Add(float64(exportItems(p)))
	case widget.EventDelete:
		m.deleted.Add(float64(exportItems(p)))
	}
}

// MetricsHandler serves the collectors registered on g.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
