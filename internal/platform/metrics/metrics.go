package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	FederationAttempts *prometheus.CounterVec
	FederationDuration prometheus.Histogram
	NativeAuthBlocked  prometheus.Counter
	NativeLogins       *prometheus.CounterVec
	UsersCreated       prometheus.Counter
	RateLimitRejected  *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return newWith(prometheus.DefaultRegisterer)
}

// NewForTesting registers metrics on a private registry so parallel tests do
// not collide on duplicate registration.
func NewForTesting() *Metrics {
	return newWith(prometheus.NewRegistry())
}

func newWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FederationAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bronn_federation_attempts_total",
			Help: "Federation calls by outcome (ok, invalid_credential, engine_unavailable, error).",
		}, []string{"outcome"}),
		FederationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bronn_federation_duration_seconds",
			Help:    "End-to-end duration of verify-and-federate calls.",
			Buckets: prometheus.DefBuckets,
		}),
		NativeAuthBlocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "bronn_native_auth_blocked_total",
			Help: "Requests rejected by the managed-mode auth gate.",
		}),
		NativeLogins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bronn_native_logins_total",
			Help: "Native sign-in attempts by outcome (ok, failed).",
		}, []string{"outcome"}),
		UsersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bronn_users_created_total",
			Help: "Total number of local user records created.",
		}),
		RateLimitRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bronn_rate_limit_rejected_total",
			Help: "Requests rejected by the rate limiter, by endpoint class.",
		}, []string{"class"}),
	}
}
