package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wnusair/miami-MTI/pkg/monitoring"
)

// Metrics contains the service-specific Prometheus metrics shared between
// the hub and the HTTP handlers. The struct may be nil in tests; callers
// guard every use.
type Metrics struct {
	HubConnections   *prometheus.GaugeVec   // live sessions, labeled by room ("all" = registry size)
	HubEvents        *prometheus.CounterVec // hub events by type and direction
	DroppedEvents    *prometheus.CounterVec // fan-out sends dropped because a receiver was full
	IngestedReadings *prometheus.CounterVec // stored readings by sensor and status
	ExportsTotal     *prometheus.CounterVec // XLSX exports by outcome
}

// New registers the service metrics on the shared collector.
func New(mc *monitoring.MetricsCollector) *Metrics {
	return &Metrics{
		HubConnections:   mc.NewGauge("hub_connections", "Live dashboard sessions by room", []string{"room"}),
		HubEvents:        mc.NewCounter("hub_events_total", "Hub events by type and direction", []string{"type", "direction"}),
		DroppedEvents:    mc.NewCounter("hub_dropped_events_total", "Hub events dropped because a receiver was full", []string{"type"}),
		IngestedReadings: mc.NewCounter("ingested_readings_total", "Stored sensor readings by sensor and status", []string{"sensor", "status"}),
		ExportsTotal:     mc.NewCounter("exports_total", "XLSX export requests by outcome", []string{"outcome"}),
	}
}
