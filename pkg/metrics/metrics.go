package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	JobsInQueue         prometheus.Gauge
	ActiveSessions      prometheus.Gauge
	SessionsTotal       *prometheus.CounterVec
	SessionDuration     *prometheus.HistogramVec
	NavigationsTotal    *prometheus.CounterVec
	InterceptedTotal    *prometheus.CounterVec
	FingerprintCalls    *prometheus.CounterVec
	VerdictsTotal       *prometheus.CounterVec
	ArtifactsRemoved    *prometheus.CounterVec
}

// New registers the metrics on reg. Pass prometheus.DefaultRegisterer to
// expose them on /metrics, or a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		JobsInQueue: f.NewGauge(prometheus.GaugeOpts{
			Name: "trackscope_jobs_in_queue",
			Help: "Current number of crawl jobs in the queue.",
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "trackscope_active_sessions",
			Help: "Number of crawl sessions holding a backend slot.",
		}),
		SessionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trackscope_sessions_total",
			Help: "Total number of crawl sessions by outcome.",
		}, []string{"profile", "status", "error_type"}),
		SessionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trackscope_session_duration_seconds",
			Help:    "Duration of complete crawl sessions.",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200},
		}, []string{"profile"}),
		NavigationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trackscope_navigations_total",
			Help: "Page navigations by outcome.",
		}, []string{"profile", "status", "error_type"}),
		InterceptedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trackscope_intercepted_requests_total",
			Help: "Requests seen by the network observer.",
		}, []string{"resource_type"}),
		FingerprintCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trackscope_fingerprint_calls_total",
			Help: "Instrumented fingerprinting API calls.",
		}, []string{"category"}),
		VerdictsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trackscope_verdicts_total",
			Help: "Classifier verdicts by kind and outcome.",
		}, []string{"kind", "outcome"}),
		ArtifactsRemoved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trackscope_artifacts_removed_total",
			Help: "Stored artifacts removed or moved by maintenance.",
		}, []string{"kind", "action"}),
	}
}

// NewNop returns metrics registered on a private registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
