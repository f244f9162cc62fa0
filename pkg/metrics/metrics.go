package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registrations counts register calls by result (created|rejected|error).
	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "school_registrations_total",
			Help: "Total number of school registration attempts",
		},
		[]string{"result"},
	)

	// LoginAttempts counts logins by result (success|not_found|invalid|unverified|error).
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "school_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// MailsSent counts outbound mails by template and result (sent|failed).
	MailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "school_mails_total",
			Help: "Total number of outbound emails",
		},
		[]string{"template", "result"},
	)

	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "school_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
