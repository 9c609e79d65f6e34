package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SubmissionsAccepted  prometheus.Counter
	DuplicateSubmissions prometheus.Counter
	ValidationFailures   prometheus.Counter
	RespondentsErased    prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SubmissionsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "formpulse_submissions_accepted_total",
			Help: "Total number of form submissions persisted",
		}),
		DuplicateSubmissions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "formpulse_duplicate_submissions_total",
			Help: "Total number of submissions rejected as duplicates",
		}),
		ValidationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "formpulse_validation_failures_total",
			Help: "Total number of submissions rejected by validation",
		}),
		RespondentsErased: promauto.NewCounter(prometheus.CounterOpts{
			Name: "formpulse_respondents_erased_total",
			Help: "Total number of respondent PII records erased",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "formpulse_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "status"}),
	}
}

// NewForTest creates metrics on a private registry so parallel tests don't
// collide on the default registerer.
func NewForTest() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		SubmissionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "formpulse_submissions_accepted_total",
			Help: "Total number of form submissions persisted",
		}),
		DuplicateSubmissions: factory.NewCounter(prometheus.CounterOpts{
			Name: "formpulse_duplicate_submissions_total",
			Help: "Total number of submissions rejected as duplicates",
		}),
		ValidationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "formpulse_validation_failures_total",
			Help: "Total number of submissions rejected by validation",
		}),
		RespondentsErased: factory.NewCounter(prometheus.CounterOpts{
			Name: "formpulse_respondents_erased_total",
			Help: "Total number of respondent PII records erased",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "formpulse_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "status"}),
	}
}
