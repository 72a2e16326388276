package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scanResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_scan_results_total",
			Help: "Scan verification results by gate and reason code",
		},
		[]string{"gate", "reason", "allowed"},
	)

	scanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkin_scan_duration_seconds",
			Help:    "Round trip of one scan verification including lookups",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	overrideActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_override_actions_total",
			Help: "Admin override actions by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	issuanceItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_issuance_items_total",
			Help: "Batch issuance items by outcome",
		},
		[]string{"outcome"},
	)

	emailDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_email_deliveries_total",
			Help: "Ticket email deliveries by status",
		},
		[]string{"status"},
	)
)

// ObserveScan records one scan outcome.
func ObserveScan(gate, reason string, allowed bool, seconds float64, method string) {
	a := "false"
	if allowed {
		a = "true"
	}
	scanResults.WithLabelValues(gate, reason, a).Inc()
	scanDuration.WithLabelValues(method).Observe(seconds)
}

// ObserveOverride records an admin override action. outcome is ok, rejected or error.
func ObserveOverride(action, outcome string) {
	overrideActions.WithLabelValues(action, outcome).Inc()
}

// ObserveIssuance records one batch item outcome (issued, skipped, not_paid, failed).
func ObserveIssuance(outcome string) {
	issuanceItems.WithLabelValues(outcome).Inc()
}

// ObserveEmail records one email delivery attempt (sent, failed, or mock when SMTP is off).
func ObserveEmail(status string) {
	emailDeliveries.WithLabelValues(status).Inc()
}

// Handler exposes the default registry for gin.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
