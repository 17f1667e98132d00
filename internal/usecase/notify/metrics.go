package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// outcome is the final state of one send to one channel.
type outcome string

const (
	outcomeSent        outcome = "sent"
	outcomeFailed      outcome = "failed"
	outcomePoolFull    outcome = "dropped_pool_full"
	outcomeCircuitOpen outcome = "dropped_circuit_open"
	outcomeShutdown    outcome = "dropped_shutdown"
)

var (
	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entry_notifications_total",
			Help: "New-entry notifications by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	notificationSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "entry_notification_send_duration_seconds",
			Help:    "Time spent sending a new-entry notification, retries included",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"channel", "outcome"},
	)

	notificationsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "entry_notifications_in_flight",
			Help: "Notification sends currently waiting for or holding a worker slot",
		},
	)

	notificationChannels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "entry_notification_channels",
			Help: "Number of configured notification channels",
		},
	)
)

// observe counts one finished send. Dropped sends have no duration.
func observe(channel string, o outcome, d time.Duration) {
	notificationsTotal.WithLabelValues(channel, string(o)).Inc()
	if o == outcomeSent || o == outcomeFailed {
		notificationSendDuration.WithLabelValues(channel, string(o)).Observe(d.Seconds())
	}
}
