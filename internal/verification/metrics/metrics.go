package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Outcomes *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Races    prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ballotbox_verification_outcomes_total",
			Help: "Verification attempts, by channel and outcome",
		}, []string{"channel", "outcome"}),
		Duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ballotbox_verification_duration_seconds",
			Help:    "End-to-end verification latency, by channel",
			Buckets: prometheus.DefBuckets,
		}, []string{"channel"}),
		Races: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ballotbox_verification_duplicate_vote_races_total",
			Help: "Voter inserts that lost a uniqueness race and were reported as already voted",
		}),
	}
}

func (m *Metrics) ObserveOutcome(channel, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(channel, outcome).Inc()
	m.Duration.WithLabelValues(channel).Observe(d.Seconds())
}

func (m *Metrics) IncRace() {
	if m == nil {
		return
	}
	m.Races.Inc()
}
