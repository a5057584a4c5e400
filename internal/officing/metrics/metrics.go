package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	FailedCensusCalls *prometheus.CounterVec
	Authorizations    *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		FailedCensusCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ballotbox_officing_failed_census_calls_total",
			Help: "Failed census calls recorded, by channel and reason",
		}, []string{"channel", "reason"}),
		Authorizations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ballotbox_officing_authorizations_total",
			Help: "Officer authorization checks, by channel and result",
		}, []string{"channel", "result"}),
	}
}

func (m *Metrics) IncFailedCensusCall(channel, reason string) {
	if m == nil {
		return
	}
	m.FailedCensusCalls.WithLabelValues(channel, reason).Inc()
}

func (m *Metrics) IncAuthorization(channel string, allowed bool) {
	if m == nil {
		return
	}
	result := "denied"
	if allowed {
		result = "allowed"
	}
	m.Authorizations.WithLabelValues(channel, result).Inc()
}
