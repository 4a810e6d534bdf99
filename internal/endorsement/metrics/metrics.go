package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks ledger appends and their outcome.
type Metrics struct {
	Appended       prometheus.Counter
	Rejected       *prometheus.CounterVec
	Aborted        prometheus.Counter
	AppendDuration prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Appended: f.NewCounter(prometheus.CounterOpts{
			Name: "vouch_endorsements_appended_total",
			Help: "Total number of endorsements committed to the ledger",
		}),
		Rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_endorsements_rejected_total",
			Help: "Endorsement appends rejected before the ledger changed, by error code",
		}, []string{"code"}),
		Aborted: f.NewCounter(prometheus.CounterOpts{
			Name: "vouch_endorsements_aborted_total",
			Help: "Endorsement appends rolled back after the ledger changed",
		}),
		AppendDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vouch_endorsement_append_duration_seconds",
			Help:    "Duration of endorsement appends including lock wait",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementAppended() {
	if m == nil {
		return
	}
	m.Appended.Inc()
}

func (m *Metrics) IncrementRejected(code string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(code).Inc()
}

func (m *Metrics) IncrementAborted() {
	if m == nil {
		return
	}
	m.Aborted.Inc()
}

func (m *Metrics) ObserveAppend(start time.Time) {
	if m == nil {
		return
	}
	m.AppendDuration.Observe(time.Since(start).Seconds())
}
