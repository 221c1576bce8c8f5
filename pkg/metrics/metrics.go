// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// WebhooksTotal tracks provider webhook deliveries.
	WebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Provider webhook deliveries by endpoint and outcome",
		},
		[]string{"endpoint", "kind", "outcome"},
	)

	// AppendDuration tracks event log append latency.
	AppendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventlog_append_duration_seconds",
			Help:    "Event log append duration in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"sink", "stream"},
	)

	// AppendsTotal tracks event log appends.
	AppendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventlog_appends_total",
			Help: "Event log appends by sink, stream and outcome",
		},
		[]string{"sink", "stream", "outcome"},
	)

	// AppendFailuresTotal tracks records the pipeline failed to persist.
	AppendFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventlog_append_failures_total",
			Help: "Records that could not be fully persisted",
		},
		[]string{"stream", "type"},
	)

	// ProviderRequestsTotal tracks telephony provider API calls.
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Telephony provider API requests",
		},
		[]string{"operation", "outcome"},
	)

	// ProviderRequestDuration tracks telephony provider API latency.
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Telephony provider API request duration",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
		},
		[]string{"operation"},
	)

	// NATSStreamMessages tracks messages in NATS stream.
	NATSStreamMessages = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nats_stream_messages",
			Help: "Number of messages in NATS stream",
		},
		[]string{"stream"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordWebhook records a webhook delivery.
func RecordWebhook(endpoint, kind, outcome string) {
	WebhooksTotal.WithLabelValues(endpoint, kind, outcome).Inc()
}

// RecordAppend records one sink append.
func RecordAppend(sink, stream string, err error, duration float64) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	AppendDuration.WithLabelValues(sink, stream).Observe(duration)
	AppendsTotal.WithLabelValues(sink, stream, outcome).Inc()
}

// RecordProviderRequest records a telephony provider API call.
func RecordProviderRequest(operation string, err error, duration float64) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	ProviderRequestsTotal.WithLabelValues(operation, outcome).Inc()
	ProviderRequestDuration.WithLabelValues(operation).Observe(duration)
}
