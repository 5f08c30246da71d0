package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all daemon-level metrics
type Metrics struct {
	// Operation metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	ErrorsTotal       *prometheus.CounterVec

	// Resource table metrics
	ResourceCount prometheus.Gauge

	// Change notification metrics
	EventsPublished    prometheus.Counter
	EventPublishFailed prometheus.Counter

	// NATS metrics
	NATSConnected  prometheus.Gauge
	NATSRTT        prometheus.Gauge
	NATSReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all daemon metrics
func NewMetrics() *Metrics {
	return &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trawl",
				Subsystem: "operations",
				Name:      "total",
				Help:      "Total number of bus operations handled",
			},
			[]string{"operation", "status"},
		),

		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "trawl",
				Subsystem: "operations",
				Name:      "duration_seconds",
				Help:      "Bus operation handling duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trawl",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"operation", "type"},
		),

		ResourceCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "trawl",
				Subsystem: "resources",
				Name:      "count",
				Help:      "Number of entries currently in the resource table",
			},
		),

		EventsPublished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "trawl",
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Total number of resources-changed events published",
			},
		),

		EventPublishFailed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "trawl",
				Subsystem: "events",
				Name:      "publish_failed_total",
				Help:      "Total number of resources-changed events that failed to publish",
			},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "trawl",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSRTT: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "trawl",
				Subsystem: "nats",
				Name:      "rtt_milliseconds",
				Help:      "NATS round-trip time in milliseconds",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "trawl",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),
	}
}

// RecordOperation increments the operation counter
func (m *Metrics) RecordOperation(operation, status string) {
	m.OperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordOperationDuration records operation handling time
func (m *Metrics) RecordOperationDuration(operation string, duration time.Duration) {
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordError increments the error counter
func (m *Metrics) RecordError(operation, errorType string) {
	m.ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordResourceCount updates the resource table size gauge
func (m *Metrics) RecordResourceCount(count int) {
	m.ResourceCount.Set(float64(count))
}

// RecordEventPublished increments the published event counter
func (m *Metrics) RecordEventPublished() {
	m.EventsPublished.Inc()
}

// RecordEventPublishFailed increments the failed event counter
func (m *Metrics) RecordEventPublishFailed() {
	m.EventPublishFailed.Inc()
}

// RecordNATSStatus updates NATS connection status
func (m *Metrics) RecordNATSStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	m.NATSConnected.Set(value)
}

// RecordNATSRTT updates NATS round-trip time
func (m *Metrics) RecordNATSRTT(rtt time.Duration) {
	m.NATSRTT.Set(float64(rtt.Milliseconds()))
}

// RecordNATSReconnect increments the reconnection counter
func (m *Metrics) RecordNATSReconnect() {
	m.NATSReconnects.Inc()
}
