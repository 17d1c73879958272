package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated by a Registry.
type Metrics struct {
	ticks           prometheus.Counter
	rosterChanges   prometheus.Counter
	shapeChanges    prometheus.Counter
	externalChanges prometheus.Counter
	corruptReads    prometheus.Counter
	storeErrors     *prometheus.CounterVec
	rosterSize      prometheus.Gauge
}

// NewMetrics creates the registry collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	const ns = "winsync"

	return &Metrics{
		ticks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "ticks_total",
			Help:      "Total number of reconciliation ticks run",
		}),
		rosterChanges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "roster_changes_total",
			Help:      "Total number of times the window id set changed",
		}),
		shapeChanges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "shape_changes_total",
			Help:      "Total number of local shape change notifications",
		}),
		externalChanges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "external_changes_total",
			Help:      "Total number of roster writes observed from other windows",
		}),
		corruptReads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "corrupt_reads_total",
			Help:      "Total number of roster reads that failed validation",
		}),
		storeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "store_errors_total",
			Help:      "Total shared store errors by operation",
		}, []string{"op"}),
		rosterSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "roster_size",
			Help:      "Number of windows in the last observed roster",
		}),
	}
}
