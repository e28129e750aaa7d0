package standings

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records scoring cycle activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	cycles        *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
	sourceFaults  *prometheus.CounterVec
	participants  *prometheus.GaugeVec
}

// NewMetrics registers the standings collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cycles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_standings_cycles_total",
				Help: "Scoring cycles by outcome.",
			},
			[]string{"contest_id", "outcome"},
		),
		cycleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arena_standings_cycle_duration_seconds",
				Help:    "Wall time of a full aggregation over a contest roster.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"contest_id"},
		),
		sourceFaults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_standings_source_faults_total",
				Help: "Participant fetches that failed and were scored as zero.",
			},
			[]string{"contest_id"},
		),
		participants: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arena_standings_participants",
				Help: "Participants in the most recent published standings.",
			},
			[]string{"contest_id"},
		),
	}
}

func (m *Metrics) observeCycle(contestID, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(contestID, outcome).Inc()
	m.cycleDuration.WithLabelValues(contestID).Observe(elapsed.Seconds())
}

func (m *Metrics) sourceFault(contestID string) {
	if m == nil {
		return
	}
	m.sourceFaults.WithLabelValues(contestID).Inc()
}

func (m *Metrics) published(contestID string, participants int) {
	if m == nil {
		return
	}
	m.participants.WithLabelValues(contestID).Set(float64(participants))
}
