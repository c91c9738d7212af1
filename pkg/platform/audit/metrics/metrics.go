package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the audit trail.
type Metrics struct {
	EntriesAppended *prometheus.CounterVec
	AppendDuration  prometheus.Histogram
	AppendFailures  prometheus.Counter
}

// New registers audit metrics with the default registry.
func New() *Metrics {
	return &Metrics{
		EntriesAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clubid_audit_entries_appended_total",
			Help: "Audit entries appended, by action",
		}, []string{"action"}),
		AppendDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "clubid_audit_append_duration_seconds",
			Help:    "Time taken to persist an audit entry",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		AppendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clubid_audit_append_failures_total",
			Help: "Audit appends that failed and aborted their transition",
		}),
	}
}

func (m *Metrics) ObserveAppend(action string, d time.Duration) {
	if m == nil {
		return
	}
	m.EntriesAppended.WithLabelValues(action).Inc()
	m.AppendDuration.Observe(d.Seconds())
}

func (m *Metrics) IncAppendFailures() {
	if m == nil {
		return
	}
	m.AppendFailures.Inc()
}
