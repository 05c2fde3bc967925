package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "turbarch_evaluations_total",
		Help: "Scoring calls by outcome.",
	}, []string{"outcome"})

	evaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "turbarch_evaluation_duration_seconds",
		Help:    "Wall-clock duration of scoring calls.",
		Buckets: prometheus.DefBuckets,
	})

	activeRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "turbarch_optimization_runs_active",
		Help: "Optimization runs currently in progress.",
	})
)

func outcomeLabel(feasible bool, failed bool) string {
	switch {
	case failed:
		return "failed"
	case feasible:
		return "feasible"
	default:
		return "infeasible"
	}
}
