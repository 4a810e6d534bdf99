package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the identity registry.
type Metrics struct {
	IdentitiesCreated prometheus.Counter
	ReputationApplied prometheus.Counter
	MutationDuration  prometheus.Histogram
}

// New registers the identity metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		IdentitiesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "vouch_identities_created_total",
			Help: "Total number of identities registered",
		}),
		ReputationApplied: f.NewCounter(prometheus.CounterOpts{
			Name: "vouch_reputation_points_applied_total",
			Help: "Sum of reputation points added to identities",
		}),
		MutationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vouch_identity_mutation_duration_seconds",
			Help:    "Duration of identity mutations including lock wait",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementIdentitiesCreated() {
	if m == nil {
		return
	}
	m.IdentitiesCreated.Inc()
}

func (m *Metrics) AddReputation(points int64) {
	if m == nil || points <= 0 {
		return
	}
	m.ReputationApplied.Add(float64(points))
}

// ObserveMutation records the duration of a mutation started at start.
func (m *Metrics) ObserveMutation(start time.Time) {
	if m == nil {
		return
	}
	m.MutationDuration.Observe(time.Since(start).Seconds())
}
