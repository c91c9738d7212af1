package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Submitted        *prometheus.CounterVec
	Decisions        *prometheus.CounterVec
	DecisionDuration prometheus.Histogram
	CodesIssued      *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Submitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clubid_role_requests_submitted_total",
			Help: "Role requests submitted, by requested role",
		}, []string{"role"}),
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clubid_role_requests_decided_total",
			Help: "Role request decisions, by outcome",
		}, []string{"outcome"}),
		DecisionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "clubid_role_request_decision_duration_seconds",
			Help:    "Time to approve or reject a role request, including code issuance",
			Buckets: prometheus.DefBuckets,
		}),
		CodesIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clubid_identity_codes_issued_total",
			Help: "Identity codes issued through role approval, by role",
		}, []string{"role"}),
	}
}

func (m *Metrics) IncSubmitted(role string) {
	if m != nil {
		m.Submitted.WithLabelValues(role).Inc()
	}
}

func (m *Metrics) ObserveDecision(outcome string, d time.Duration) {
	if m != nil {
		m.Decisions.WithLabelValues(outcome).Inc()
		m.DecisionDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) IncCodeIssued(role string) {
	if m != nil {
		m.CodesIssued.WithLabelValues(role).Inc()
	}
}
