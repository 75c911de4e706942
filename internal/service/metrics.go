package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	calculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "megacalc_calculations_total",
			Help: "The total number of governed calculations processed",
		},
		[]string{"kind", "mode", "status"},
	)
	calculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "megacalc_calculation_duration_seconds",
			Help:    "The duration of governed calculations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"kind", "mode"},
	)
)
