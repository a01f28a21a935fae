package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts records login attempts by result (success|failure).
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_api_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// RegistrationSteps counts registration flow calls by step
	// (request|verify|resend) and result (success|failure).
	RegistrationSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_api_registration_steps_total",
			Help: "Total number of registration flow steps",
		},
		[]string{"step", "result"},
	)

	// RateLimited counts requests rejected by a limiter (window|auth).
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_api_rate_limited_total",
			Help: "Requests rejected by rate limiting",
		},
		[]string{"limiter"},
	)

	// ExpiredRegistrationsPurged counts pending registrations removed by the sweeper.
	ExpiredRegistrationsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "todo_api_expired_registrations_purged_total",
			Help: "Expired pending registrations removed by the cleanup job",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todo_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Result maps an error to the "result" label value.
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
