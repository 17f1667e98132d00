package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission and payment metrics.
var (
	// EntriesSubmittedTotal counts persisted entries
	EntriesSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entries_submitted_total",
			Help: "Total number of contest entries persisted",
		},
		[]string{"category", "entry_type"},
	)

	// EntrySubmissionsRejectedTotal counts submissions that ended in the rejected state
	EntrySubmissionsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entry_submissions_rejected_total",
			Help: "Total number of rejected entry submissions",
		},
		[]string{"reason"},
	)

	// EntriesDeletedTotal counts entries removed by their owner
	EntriesDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "entries_deleted_total",
			Help: "Total number of contest entries deleted",
		},
	)

	// PaymentIntentsCreatedTotal counts payment intents opened with the gateway
	PaymentIntentsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_intents_created_total",
			Help: "Total number of payment intents created",
		},
		[]string{"category"},
	)

	// PaymentWebhooksTotal counts gateway notifications by event type and outcome
	PaymentWebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhooks_total",
			Help: "Total number of payment gateway notifications received",
		},
		[]string{"type", "result"}, // result: applied, ignored, unknown_intent, invalid_signature, error
	)

	// GatewayRequestDuration measures payment gateway round-trips
	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Payment gateway request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "result"},
	)

	// FileStoreDuration measures file storage operations
	FileStoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "file_store_duration_seconds",
			Help:    "File storage operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"backend", "operation"},
	)
)

// Webhook outcomes used as the result label of PaymentWebhooksTotal.
const (
	WebhookApplied          = "applied"
	WebhookIgnored          = "ignored"
	WebhookUnknownIntent    = "unknown_intent"
	WebhookInvalidSignature = "invalid_signature"
	WebhookError            = "error"
)

// RecordEntrySubmitted records a persisted entry.
func RecordEntrySubmitted(category, entryType string) {
	EntriesSubmittedTotal.WithLabelValues(category, entryType).Inc()
}

// RecordSubmissionRejected records a submission that stopped in the rejected state.
// Reason is one of missing-fields, file-invalid, payment-incomplete, invalid-content.
func RecordSubmissionRejected(reason string) {
	EntrySubmissionsRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordEntryDeleted records an owner-initiated delete.
func RecordEntryDeleted() {
	EntriesDeletedTotal.Inc()
}

// RecordPaymentIntentCreated records a new payment intent for the category.
func RecordPaymentIntentCreated(category string) {
	PaymentIntentsCreatedTotal.WithLabelValues(category).Inc()
}

// RecordWebhook records a gateway notification.
// An empty event type is reported as "unverified".
func RecordWebhook(eventType, result string) {
	if eventType == "" {
		eventType = "unverified"
	}
	PaymentWebhooksTotal.WithLabelValues(eventType, result).Inc()
}

// RecordGatewayRequest records the latency of a payment gateway call.
func RecordGatewayRequest(operation string, duration time.Duration, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	GatewayRequestDuration.WithLabelValues(operation, result).Observe(duration.Seconds())
}

// RecordFileStore records the latency of a file storage operation.
func RecordFileStore(backend, operation string, duration time.Duration) {
	FileStoreDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordDBQuery records one repository call, labelled by operation
// ("insert_entry", "find_by_owner", ...).
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnections publishes connection pool usage.
func UpdateDBConnections(inUse, idle int) {
	DBConnectionsActive.Set(float64(inUse))
	DBConnectionsIdle.Set(float64(idle))
}
