package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Submissions   *prometheus.CounterVec
	FlaggedBooths prometheus.Counter
	ReportsServed *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ballotbox_recount_submissions_total",
			Help: "Officer recount submissions, by kind",
		}, []string{"kind"}),
		FlaggedBooths: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ballotbox_recount_flagged_booths_total",
			Help: "Booths reported with a final recount that disagrees with the vote ledger",
		}),
		ReportsServed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ballotbox_recount_reports_total",
			Help: "Reconciliation reports built, by scope",
		}, []string{"scope"}),
	}
}

func (m *Metrics) IncSubmission(kind string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveReport(scope string, flagged int) {
	if m == nil {
		return
	}
	m.ReportsServed.WithLabelValues(scope).Inc()
	m.FlaggedBooths.Add(float64(flagged))
}
