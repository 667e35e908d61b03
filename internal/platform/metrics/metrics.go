package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the portal. Construct once in
// main; services tolerate a nil *Metrics so tests need no registry.
type Metrics struct {
	Logins                *prometheus.CounterVec
	StepsCompleted        prometheus.Counter
	Verifications         prometheus.Counter
	ModerationDecisions   *prometheus.CounterVec
	ApplicationsSubmitted prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_logins_total",
			Help: "Login attempts by session kind and result.",
		}, []string{"kind", "result"}),
		StepsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "portal_onboarding_steps_completed_total",
			Help: "Onboarding roadmap steps marked done.",
		}),
		Verifications: promauto.NewCounter(prometheus.CounterOpts{
			Name: "portal_partner_verifications_total",
			Help: "Partners that completed the verification transition.",
		}),
		ModerationDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_moderation_decisions_total",
			Help: "Featured-listing applications decided, by outcome.",
		}, []string{"decision"}),
		ApplicationsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "portal_applications_submitted_total",
			Help: "Featured-listing applications received.",
		}),
	}
}

// IncrementLogin records a login attempt outcome.
func (m *Metrics) IncrementLogin(kind, result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(kind, result).Inc()
}

// IncrementStepCompleted records an onboarding step advance.
func (m *Metrics) IncrementStepCompleted() {
	if m == nil {
		return
	}
	m.StepsCompleted.Inc()
}

// IncrementVerification records a completed verification transition.
func (m *Metrics) IncrementVerification() {
	if m == nil {
		return
	}
	m.Verifications.Inc()
}

// IncrementModerationDecision records an approve or reject outcome.
func (m *Metrics) IncrementModerationDecision(decision string) {
	if m == nil {
		return
	}
	m.ModerationDecisions.WithLabelValues(decision).Inc()
}

// IncrementApplicationSubmitted records a received application.
func (m *Metrics) IncrementApplicationSubmitted() {
	if m == nil {
		return
	}
	m.ApplicationsSubmitted.Inc()
}
