package node

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics collects the runtime loop's own health signals: tick duration and
// how many ticks ran over their stage deadline. newMetrics builds the
// collectors and registers them against prometheus.DefaultRegisterer; New
// calls it only when Options.Metrics is set, so a Node can be built in
// tests without touching the global registry.
type metrics struct {
	tickDuration prometheus.Histogram
	tickOverruns prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "elara_node_tick_duration_seconds",
			Help:    "Wall-clock duration of one runtime tick.",
			Buckets: prometheus.DefBuckets,
		}),
		tickOverruns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "elara_node_tick_overruns_total",
			Help: "Ticks whose stages 1-3 exceeded the configured stage deadline.",
		}),
	}
	prometheus.MustRegister(m.tickDuration, m.tickOverruns)
	return m
}

func (m *metrics) observeTick(d time.Duration) {
	m.tickDuration.Observe(d.Seconds())
}

func (m *metrics) observeOverrun() {
	m.tickOverruns.Inc()
}
