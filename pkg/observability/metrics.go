package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for gateway requests
const (
	OutcomeOK             = "ok"
	OutcomeGatewayError   = "gateway_error"
	OutcomeTransportError = "transport_error"
)

// Outcome labels for callback notifications
const (
	CallbackAccepted         = "accepted"
	CallbackInvalidSignature = "invalid_signature"
	CallbackMalformed        = "malformed"
)

var (
	// Gateway API request metrics
	gatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayforpay_gateway_requests_total",
			Help: "Total number of requests sent to the WayForPay API",
		},
		[]string{"transaction_type", "outcome"},
	)

	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wayforpay_gateway_request_duration_seconds",
			Help:    "Duration of WayForPay API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"transaction_type"},
	)

	gatewayRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wayforpay_gateway_requests_in_flight",
			Help: "Number of WayForPay API requests currently awaiting a response",
		},
	)

	callbackNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayforpay_callback_notifications_total",
			Help: "Total number of service URL notifications received",
		},
		[]string{"transaction_status", "outcome"},
	)
)

// TrackGatewayRequest marks a request as in flight and returns a function
// that records its outcome and duration.
func TrackGatewayRequest(transactionType string) func(outcome string) {
	start := time.Now()
	gatewayRequestsInFlight.Inc()
	return func(outcome string) {
		gatewayRequestsInFlight.Dec()
		gatewayRequestDuration.WithLabelValues(transactionType).Observe(time.Since(start).Seconds())
		gatewayRequestsTotal.WithLabelValues(transactionType, outcome).Inc()
	}
}

// RecordCallback counts a received notification
func RecordCallback(transactionStatus, outcome string) {
	callbackNotificationsTotal.WithLabelValues(transactionStatus, outcome).Inc()
}
