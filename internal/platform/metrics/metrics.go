package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service. All methods are
// safe to call on a nil receiver so components can run without metrics.
type Metrics struct {
	StatementsSubmitted     *prometheus.CounterVec
	StatementSubmitDuration prometheus.Histogram
	OrphanedStatements      prometheus.Counter
	AUTransitions           *prometheus.CounterVec
	CompanionRequests       *prometheus.CounterVec
	CourseCacheLookups      *prometheus.CounterVec
	RegistrationsCreated    prometheus.Counter
	TransitionDuration      *prometheus.HistogramVec
}

// New registers all collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StatementsSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "catapult_statements_submitted_total",
			Help: "Statements submitted to the LRS by verb and outcome",
		}, []string{"verb", "outcome"}),
		StatementSubmitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "catapult_statement_submit_duration_seconds",
			Help:    "Duration of LRS statement submissions",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		OrphanedStatements: f.NewCounter(prometheus.CounterOpts{
			Name: "catapult_orphaned_statements_total",
			Help: "Statements accepted by the LRS whose local transaction was rolled back",
		}),
		AUTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "catapult_au_transitions_total",
			Help: "Waive and complete attempts by kind and outcome",
		}, []string{"kind", "outcome"}),
		CompanionRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "catapult_companion_requests_total",
			Help: "Calls to the companion registration service by operation and outcome",
		}, []string{"operation", "outcome"}),
		CourseCacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "catapult_course_cache_lookups_total",
			Help: "Course cache lookups by result",
		}, []string{"result"}),
		RegistrationsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "catapult_registrations_created_total",
			Help: "Total number of registrations created",
		}),
		TransitionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catapult_au_transition_duration_seconds",
			Help:    "Duration of waive and complete workflows",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"kind"}),
	}
}

// ObserveStatement records one LRS submission.
func (m *Metrics) ObserveStatement(verb, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.StatementsSubmitted.WithLabelValues(verb, outcome).Inc()
	m.StatementSubmitDuration.Observe(time.Since(start).Seconds())
}

// AddOrphanedStatements counts statements left without matching local state.
func (m *Metrics) AddOrphanedStatements(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.OrphanedStatements.Add(float64(n))
}

// ObserveTransition records a waive or complete attempt.
func (m *Metrics) ObserveTransition(kind, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.AUTransitions.WithLabelValues(kind, outcome).Inc()
	m.TransitionDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// IncCompanionRequest records a companion service call.
func (m *Metrics) IncCompanionRequest(operation, outcome string) {
	if m == nil {
		return
	}
	m.CompanionRequests.WithLabelValues(operation, outcome).Inc()
}

// IncCourseCache records a cache hit, miss or error.
func (m *Metrics) IncCourseCache(result string) {
	if m == nil {
		return
	}
	m.CourseCacheLookups.WithLabelValues(result).Inc()
}

// IncRegistrationsCreated records a successful enrollment.
func (m *Metrics) IncRegistrationsCreated() {
	if m == nil {
		return
	}
	m.RegistrationsCreated.Inc()
}
