package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// computeDuration measures wall time of one force computation.
	// Labels: family, backend
	computeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pairsim",
		Subsystem: "compute",
		Name:      "duration_seconds",
		Help:      "Force computation latency in seconds",
		Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 12),
	}, []string{"family", "backend"})

	// pairsTotal counts candidate pairs by outcome.
	// Labels: family, outcome (evaluated, skipped)
	pairsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pairsim",
		Subsystem: "compute",
		Name:      "pairs_total",
		Help:      "Candidate pairs visited by the force driver",
	}, []string{"family", "outcome"})

	// computeErrors counts computations that did not finish.
	// Labels: family, reason (canceled, config)
	computeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pairsim",
		Subsystem: "compute",
		Name:      "errors_total",
		Help:      "Force computations that returned an error",
	}, []string{"family", "reason"})

	// stagedBytes tracks the shared memory one group staged last.
	// Labels: family
	stagedBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "pairsim",
		Subsystem: "staging",
		Name:      "bytes",
		Help:      "Shared memory bytes staged per execution group",
	}, []string{"family"})

	// stagedLoads counts per-group parameter loads.
	// Labels: family
	stagedLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pairsim",
		Subsystem: "staging",
		Name:      "loads_total",
		Help:      "Parameter entries loaded into group shared memory",
	}, []string{"family"})

	// unmanagedTables counts group computations that staged from host memory.
	unmanagedTables = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pairsim",
		Subsystem: "staging",
		Name:      "unmanaged_total",
		Help:      "Group computations over parameter tables without managed backing memory",
	})
)

// RecordCompute records one finished force computation.
func RecordCompute(family, backend string, evaluated, skipped int, elapsed time.Duration) {
	computeDuration.WithLabelValues(family, backend).Observe(elapsed.Seconds())
	pairsTotal.WithLabelValues(family, "evaluated").Add(float64(evaluated))
	pairsTotal.WithLabelValues(family, "skipped").Add(float64(skipped))
}

// RecordError records a computation that returned an error.
func RecordError(family, reason string) {
	computeErrors.WithLabelValues(family, reason).Inc()
}

// RecordStaging records the shared memory footprint of one group backend run.
func RecordStaging(family string, bytes, loads int) {
	stagedBytes.WithLabelValues(family).Set(float64(bytes))
	stagedLoads.WithLabelValues(family).Add(float64(loads))
}

// RecordUnmanaged records a group run over host-resident parameters.
func RecordUnmanaged() {
	unmanagedTables.Inc()
}
