package governor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	breachesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "megacalc_governor_breaches_total",
			Help: "The total number of governed runs stopped by a limit",
		},
		[]string{"reason"},
	)
	abandonedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "megacalc_governor_abandoned_total",
			Help: "The total number of computations detached after a breach before they returned",
		},
	)
	peakMemoryBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "megacalc_governor_peak_memory_bytes",
			Help: "The peak memory sampled during the last governed run",
		},
	)
)
