package problem

import (
	"time"

	"github.com/archlab/turbarch/internal/catalog"
	"github.com/archlab/turbarch/internal/evaluation"
)

// DefaultConditions is the sea-level static design condition of the
// reference architecting problem.
func DefaultConditions() evaluation.Conditions {
	return evaluation.Conditions{
		Mach:             1e-6,
		Altitude:         0,
		Thrust:           150e3,
		TurbineInletTemp: 1450,
		BleedOfftake:     0.5,
		PowerOfftake:     37.5e3,
	}
}

// Default returns the reference turbofan architecting problem: the built-in
// catalog, fuel burn / weight / noise objectives, and envelope and emission
// constraints.
func Default(eval evaluation.Evaluator, evalTimeout time.Duration) (*Problem, error) {
	return DefaultForCatalog(catalog.Turbofan(), eval, evalTimeout)
}

// DefaultForCatalog builds the reference problem over the given catalog,
// keeping the standard objectives and constraints.
func DefaultForCatalog(cat *catalog.Catalog, eval evaluation.Evaluator, evalTimeout time.Duration) (*Problem, error) {
	return New(Config{
		Catalog: cat,
		Objectives: []Objective{
			{Metric: evaluation.MetricTSFC, Direction: Minimize},
			{Metric: evaluation.MetricWeight, Direction: Minimize},
			{Metric: evaluation.MetricNoise, Direction: Minimize},
		},
		Constraints: []Constraint{
			{Metric: evaluation.MetricLength, Direction: LessEqual, Limit: 4.5},
			{Metric: evaluation.MetricDiameter, Direction: LessEqual, Limit: 2.75},
			{Metric: evaluation.MetricNOx, Direction: LessEqual, Limit: 1.0},
			{Metric: evaluation.MetricJetMach, Direction: LessEqual, Limit: 1.0},
		},
		Evaluator:   eval,
		Conditions:  DefaultConditions(),
		EvalTimeout: evalTimeout,
	})
}
