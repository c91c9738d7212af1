package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Proposed       *prometheus.CounterVec
	Decisions      *prometheus.CounterVec
	Reconsents     prometheus.Counter
	ReconsentBatch prometheus.Histogram
	Reaffirmed     prometheus.Counter
	Withdrawn      prometheus.Counter
	Propagations   *prometheus.CounterVec
	Superseded     *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Proposed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clubid_integration_requests_proposed_total",
			Help: "Integration requests proposed, by entity kind and initiator side",
		}, []string{"entity_kind", "initiator"}),
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clubid_integration_requests_decided_total",
			Help: "Integration request decisions, by outcome",
		}, []string{"outcome"}),
		Reconsents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clubid_integration_reconsents_triggered_total",
			Help: "Reconsent triggers that suspended at least one integration",
		}),
		ReconsentBatch: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "clubid_integration_reconsent_batch_size",
			Help:    "Integrations suspended per reconsent trigger",
			Buckets: []float64{1, 2, 3, 5, 10, 25},
		}),
		Reaffirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clubid_integration_reaffirmed_total",
			Help: "Integrations restored after reconsent",
		}),
		Withdrawn: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clubid_integration_withdrawn_total",
			Help: "Integrations withdrawn after reconsent",
		}),
		Propagations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clubid_integration_membership_propagations_total",
			Help: "Membership writes caused by approvals, by entity kind",
		}, []string{"entity_kind"}),
		Superseded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clubid_integration_superseded_total",
			Help: "Approved links revoked because a newer approval replaced their membership",
		}, []string{"entity_kind"}),
	}
}

func (m *Metrics) IncProposed(entityKind string, selfInitiated bool) {
	if m == nil {
		return
	}
	initiator := "admin"
	if selfInitiated {
		initiator = "person"
	}
	m.Proposed.WithLabelValues(entityKind, initiator).Inc()
}

func (m *Metrics) IncDecision(outcome string) {
	if m != nil {
		m.Decisions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveReconsent(suspended int) {
	if m != nil && suspended > 0 {
		m.Reconsents.Inc()
		m.ReconsentBatch.Observe(float64(suspended))
	}
}

func (m *Metrics) IncReaffirmed() {
	if m != nil {
		m.Reaffirmed.Inc()
	}
}

func (m *Metrics) IncWithdrawn() {
	if m != nil {
		m.Withdrawn.Inc()
	}
}

func (m *Metrics) IncPropagation(entityKind string) {
	if m != nil {
		m.Propagations.WithLabelValues(entityKind).Inc()
	}
}

func (m *Metrics) IncSuperseded(entityKind string) {
	if m != nil {
		m.Superseded.WithLabelValues(entityKind).Inc()
	}
}
