package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Issued      prometheus.Counter
	Redemptions *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Issued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ballotbox_nvote_issued_total",
			Help: "Web voting tokens handed out, including idempotent re-issues",
		}),
		Redemptions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ballotbox_nvote_redemptions_total",
			Help: "Web voting token redemptions, by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncIssued() {
	if m == nil {
		return
	}
	m.Issued.Inc()
}

func (m *Metrics) IncRedemption(result string) {
	if m == nil {
		return
	}
	m.Redemptions.WithLabelValues(result).Inc()
}
