package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the orchestrator's counters. Registration tolerates an
// already-registered collector so multiple orchestrators in one process
// (tests, mainly) share the same series.
type metrics struct {
	created           *prometheus.CounterVec
	provisionFailures prometheus.Counter
	scaleOps          *prometheus.CounterVec
	reaped            prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "habitat",
			Subsystem: "orchestrator",
			Name:      "environments_created_total",
			Help:      "Environments admitted and queued for provisioning",
		}, []string{"kind"}),
		provisionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "habitat",
			Subsystem: "orchestrator",
			Name:      "provision_failures_total",
			Help:      "Provisioning attempts that ended in ERROR",
		}),
		scaleOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "habitat",
			Subsystem: "orchestrator",
			Name:      "scale_operations_total",
			Help:      "Completed scale operations",
		}, []string{"direction"}),
		reaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "habitat",
			Subsystem: "orchestrator",
			Name:      "environments_reaped_total",
			Help:      "Stale environments reclaimed by the reaper",
		}),
	}

	collectors := []prometheus.Collector{m.created, m.provisionFailures, m.scaleOps, m.reaped}
	for _, collector := range collectors {
		if err := prometheus.Register(collector); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				switch existing := already.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					if collector == m.created {
						m.created = existing
					} else {
						m.scaleOps = existing
					}
				case prometheus.Counter:
					if collector == m.provisionFailures {
						m.provisionFailures = existing
					} else {
						m.reaped = existing
					}
				}
			}
		}
	}
	return m
}
