package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	IngestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evidencias_ingestions_total",
			Help: "Webhook messages processed, by outcome (accepted, ignored, failed)",
		},
		[]string{"outcome"},
	)

	MessageBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evidencias_message_bytes_total",
			Help: "Total bytes of raw message text received",
		},
	)

	CarrierUnknownTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evidencias_carrier_unknown_total",
			Help: "Accepted messages whose operator had no carrier mapping",
		},
	)

	// Status transition metrics
	StatusUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evidencias_status_updates_total",
			Help: "Status update requests, by result",
		},
		[]string{"result"},
	)

	PendingAlerts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "evidencias_pending_alerts",
			Help: "Records requiring an alert as of the last unfiltered or PENDIENTE listing",
		},
	)

	// Storage metrics
	StoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "evidencias_store_duration_seconds",
			Help:    "Duration of record store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evidencias_store_errors_total",
			Help: "Record store operations that failed",
		},
		[]string{"operation"},
	)

	// Event bus metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evidencias_events_published_total",
			Help: "Lifecycle events published, by subject and result",
		},
		[]string{"subject", "result"},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evidencias_http_requests_total",
			Help: "HTTP requests, by route pattern, method and status code",
		},
		[]string{"route", "method", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "evidencias_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evidencias_rate_limit_hits_total",
			Help: "Webhook requests rejected by the rate limiter",
		},
	)
)

// Outcome labels for IngestionsTotal.
const (
	OutcomeAccepted = "accepted"
	OutcomeIgnored  = "ignored"
	OutcomeFailed   = "failed"
)

// Result labels for StatusUpdatesTotal and EventsPublished.
const (
	ResultOK            = "ok"
	ResultInvalidStatus = "invalid_status"
	ResultNotFound      = "not_found"
	ResultError         = "error"
)
