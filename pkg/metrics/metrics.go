package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	// WorkflowTransitionsTotal counts submission workflow state changes.
	WorkflowTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taxiwatch",
		Subsystem: "workflow",
		Name:      "transitions_total",
		Help:      "Total number of submission workflow state transitions.",
	}, []string{"from", "to"})

	// GatewayCallDurationSeconds times redaction and analysis calls.
	GatewayCallDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "taxiwatch",
		Subsystem: "gateway",
		Name:      "call_duration_seconds",
		Help:      "Duration of AI gateway calls by gateway and outcome.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
	}, []string{"gateway", "outcome"})

	// ReportsFinalizedTotal counts reports appended to the watchlist.
	ReportsFinalizedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "taxiwatch",
		Subsystem: "workflow",
		Name:      "reports_finalized_total",
		Help:      "Total number of finalized reports.",
	})

	// PersistenceFailuresTotal counts failed store reads and writes.
	PersistenceFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taxiwatch",
		Subsystem: "store",
		Name:      "persistence_failures_total",
		Help:      "Total number of report store load/save failures.",
	}, []string{"backend", "op"})

	// ArchiveUploadsTotal counts archive uploads by outcome.
	ArchiveUploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taxiwatch",
		Subsystem: "archive",
		Name:      "uploads_total",
		Help:      "Total number of archive uploads by outcome.",
	}, []string{"outcome"})

	// EventsConsumedTotal counts broker deliveries by event type and outcome.
	EventsConsumedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taxiwatch",
		Subsystem: "events",
		Name:      "consumed_total",
		Help:      "Total number of consumed events by type and outcome.",
	}, []string{"event_type", "outcome"})
)

// Register registers the metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			WorkflowTransitionsTotal,
			GatewayCallDurationSeconds,
			ReportsFinalizedTotal,
			PersistenceFailuresTotal,
			ArchiveUploadsTotal,
			EventsConsumedTotal,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
