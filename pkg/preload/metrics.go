package preload

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks preload activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests prometheus.Counter
	loads    prometheus.Counter
	failures prometheus.Counter
	batches  prometheus.Counter
}

// NewMetrics creates preload metrics and registers them with reg, if non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tiburon",
			Subsystem: "preload",
			Name:      "requests_total",
			Help:      "Total number of image preload requests",
		}),
		loads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tiburon",
			Subsystem: "preload",
			Name:      "loads_total",
			Help:      "Total number of underlying image fetches",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tiburon",
			Subsystem: "preload",
			Name:      "failures_total",
			Help:      "Total number of failed image fetches",
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tiburon",
			Subsystem: "preload",
			Name:      "batches_total",
			Help:      "Total number of preload batches started",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.requests, m.loads, m.failures, m.batches)
	}
	return m
}

func (m *Metrics) request() {
	if m != nil {
		m.requests.Inc()
	}
}

func (m *Metrics) load(err error) {
	if m == nil {
		return
	}
	m.loads.Inc()
	if err != nil {
		m.failures.Inc()
	}
}

func (m *Metrics) batch() {
	if m != nil {
		m.batches.Inc()
	}
}
