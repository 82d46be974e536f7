// Package metrics provides Prometheus metrics for the follow-up services.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	InterviewsStarted     prometheus.Counter
	InterviewsCompleted   prometheus.Counter
	InterviewsAbandoned   prometheus.Counter
	AnswersRecorded       prometheus.Counter
	AnswersUndone         prometheus.Counter
	UrgentFlagged         prometheus.Counter
	SubmissionsPublished  prometheus.Counter
	SubmissionsFailed     prometheus.Counter
	VerificationAttempts  prometheus.Counter
	VerificationFailures  prometheus.Counter
	SubmitDuration        prometheus.Histogram
	ActiveSessions        prometheus.Gauge
	KafkaMessagesProduced prometheus.Counter
	KafkaMessagesConsumed prometheus.Counter
	CircuitBreakerState   *prometheus.GaugeVec
}

// New creates and registers all metrics
func New() *Metrics {
	m := &Metrics{
		InterviewsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "followup_interviews_started_total",
			Help: "Total follow-up interviews started",
		}),
		InterviewsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "followup_interviews_completed_total",
			Help: "Total follow-up interviews completed and submitted",
		}),
		InterviewsAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "followup_interviews_abandoned_total",
			Help: "Total sessions expired before submission",
		}),
		AnswersRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "followup_answers_recorded_total",
			Help: "Total answers recorded across all interviews",
		}),
		AnswersUndone: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "followup_answers_undone_total",
			Help: "Total answers removed via undo",
		}),
		UrgentFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "followup_urgent_flagged_total",
			Help: "Total submissions flagged urgent by the triage rules",
		}),
		SubmissionsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "followup_submissions_published_total",
			Help: "Total submission summaries published to the broker",
		}),
		SubmissionsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "followup_submissions_failed_total",
			Help: "Total submission publish failures",
		}),
		VerificationAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "followup_verification_attempts_total",
			Help: "Total access code verification attempts",
		}),
		VerificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "followup_verification_failures_total",
			Help: "Total rejected or expired access codes",
		}),
		SubmitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "followup_submit_duration_seconds",
			Help:    "Submission handling duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "followup_sessions_active",
			Help: "Currently active interview sessions",
		}),
		KafkaMessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafka_messages_produced_total",
			Help: "Total Kafka messages produced",
		}),
		KafkaMessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Total Kafka messages consumed",
		}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"name"}),
	}

	prometheus.MustRegister(
		m.InterviewsStarted,
		m.InterviewsCompleted,
		m.InterviewsAbandoned,
		m.AnswersRecorded,
		m.AnswersUndone,
		m.UrgentFlagged,
		m.SubmissionsPublished,
		m.SubmissionsFailed,
		m.VerificationAttempts,
		m.VerificationFailures,
		m.SubmitDuration,
		m.ActiveSessions,
		m.KafkaMessagesProduced,
		m.KafkaMessagesConsumed,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
