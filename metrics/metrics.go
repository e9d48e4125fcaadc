package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal is labelled by route template, not raw path, to keep
	// cardinality bounded.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yoosprint_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yoosprint_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	VerificationCodesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yoosprint_verification_codes_issued_total",
			Help: "Total number of login verification codes issued",
		},
	)

	// TimerEvents counts timer transitions. Labels: event (start/stop/auto_stop).
	TimerEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yoosprint_timer_events_total",
			Help: "Total number of backlog timer transitions by event",
		},
		[]string{"event"},
	)

	NotificationsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yoosprint_notifications_dropped_total",
			Help: "Notifications that could not be delivered",
		},
	)
)

func RecordRequest(method, route string, status int, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, statusLabel(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

func RecordTimer(event string) {
	TimerEvents.WithLabelValues(event).Inc()
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
