package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"stableamm/core/events"
)

// EventMetrics counts committed events by type. It satisfies events.Emitter so
// it can sit in a fanout next to the persistent sinks.
type EventMetrics struct {
	emitted *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *EventMetrics
)

// Events returns the metrics registry tracking structured pool events.
func Events() *EventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &EventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stableamm",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of committed events segmented by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(eventRegistry.emitted)
	})
	return eventRegistry
}

// Emit implements events.Emitter.
func (m *EventMetrics) Emit(evt events.Event) {
	if m == nil || evt == nil {
		return
	}
	typ := strings.TrimSpace(evt.EventType())
	if typ == "" {
		typ = "unknown"
	}
	m.emitted.WithLabelValues(typ).Inc()
}

// Collector exposes the underlying counter, mainly for tests.
func (m *EventMetrics) Collector() *prometheus.CounterVec { return m.emitted }
