// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Discovery metrics
	DiscoveryCycles     *prometheus.CounterVec
	AddressesDiscovered prometheus.Gauge
	ProviderFailures    *prometheus.CounterVec

	// Ingestion metrics
	IngestionCycles      prometheus.Counter
	EventsPublished      prometheus.Counter
	AddressErrors        prometheus.Counter
	LeaseContentionSkips prometheus.Counter

	// Consumer metrics
	MessagesConsumed     *prometheus.CounterVec
	MessagesRetried      prometheus.Counter
	MessagesDeadLettered prometheus.Counter
	EventsAdmitted       prometheus.Counter
	DuplicatesSkipped    prometheus.Counter

	// Circuit breaker
	BreakerState prometheus.Gauge

	// Latency metrics
	FetchLatency *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "whalewire"
	}

	return &Metrics{
		DiscoveryCycles: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "cycles_total",
			Help:      "Total number of discovery cycles by status",
		}, []string{"status"}),
		AddressesDiscovered: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "addresses_last_cycle",
			Help:      "Number of addresses merged in the last discovery cycle",
		}),
		ProviderFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "provider_failures_total",
			Help:      "Total number of top-holder provider failures by asset",
		}, []string{"asset"}),

		IngestionCycles: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "cycles_total",
			Help:      "Total number of coordinator cycles",
		}),
		EventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_published_total",
			Help:      "Total number of events published to the message bus",
		}),
		AddressErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "address_errors_total",
			Help:      "Total number of per-address ingestion failures",
		}),
		LeaseContentionSkips: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "lease_contention_skips_total",
			Help:      "Total number of cycles skipped because the lease was held elsewhere",
		}),

		MessagesConsumed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "messages_total",
			Help:      "Total number of consumed messages by outcome",
		}, []string{"outcome"}),
		MessagesRetried: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "messages_retried_total",
			Help:      "Total number of deliveries requeued with backoff",
		}),
		MessagesDeadLettered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "messages_dead_lettered_total",
			Help:      "Total number of deliveries routed to the DLQ",
		}),
		EventsAdmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "events_admitted_total",
			Help:      "Total number of freshly inserted events",
		}),
		DuplicatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "duplicates_skipped_total",
			Help:      "Total number of events skipped as already admitted",
		}),

		BreakerState: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),

		FetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "fetch_latency_seconds",
			Help:      "Blockchain client fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
