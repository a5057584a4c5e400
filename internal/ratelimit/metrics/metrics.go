package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Throttled   *prometheus.CounterVec
	CheckErrors prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Throttled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ballotbox_ratelimit_throttled_total",
			Help: "Total number of requests rejected by the sliding-window throttle",
		}, []string{"scope"}),
		CheckErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ballotbox_ratelimit_check_errors_total",
			Help: "Total number of throttle checks that failed and were let through",
		}),
	}
}

func (m *Metrics) IncThrottled(scope string) {
	if m == nil {
		return
	}
	m.Throttled.WithLabelValues(scope).Inc()
}

func (m *Metrics) IncCheckErrors() {
	if m == nil {
		return
	}
	m.CheckErrors.Inc()
}
