package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for census traffic.
type Metrics struct {
	CallDuration *prometheus.HistogramVec
	BreakerOpen  prometheus.Gauge
	ShortCircuit prometheus.Counter
	CacheLookups *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		CallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ballotbox_census_call_duration_seconds",
			Help:    "Latency of census calls, by outcome",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"outcome"}),
		BreakerOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ballotbox_census_breaker_open",
			Help: "Census circuit breaker state (0=closed, 1=open)",
		}),
		ShortCircuit: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ballotbox_census_short_circuited_total",
			Help: "Census calls answered unavailable without reaching the census",
		}),
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ballotbox_census_cache_lookups_total",
			Help: "Census match cache lookups, by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveCall(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.CallDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}

func (m *Metrics) IncShortCircuit() {
	if m == nil {
		return
	}
	m.ShortCircuit.Inc()
}

func (m *Metrics) IncCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
