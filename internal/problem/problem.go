// Package problem exposes the architecting design space as a black-box
// optimization problem: an immutable design-variable specification plus a
// pure scoring function from design vector to objectives, constraints, and
// feasibility. It composes the decoder, the validity checker, and the
// evaluation bridge; the search algorithm itself lives outside this package.
package problem

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/archlab/turbarch/internal/catalog"
	"github.com/archlab/turbarch/internal/design"
	"github.com/archlab/turbarch/internal/evaluation"
)

// ObjectiveDirection orients an objective metric.
type ObjectiveDirection int

const (
	Minimize ObjectiveDirection = iota
	Maximize
)

// Objective declares one optimization objective over an evaluator metric.
// Scoring always reports minimization values: maximized metrics are negated.
type Objective struct {
	Metric    string
	Direction ObjectiveDirection
}

// ConstraintDirection orients a constraint metric against its limit.
type ConstraintDirection int

const (
	// LessEqual requires metric <= limit.
	LessEqual ConstraintDirection = iota
	// GreaterEqual requires metric >= limit.
	GreaterEqual
)

// Constraint declares one constraint over an evaluator metric. Scoring
// reports normalized violations: g <= 0 means satisfied.
type Constraint struct {
	Metric    string
	Direction ConstraintDirection
	Limit     float64
}

// Config assembles a Problem.
type Config struct {
	Catalog     *catalog.Catalog
	Objectives  []Objective
	Constraints []Constraint
	Evaluator   evaluation.Evaluator
	Conditions  evaluation.Conditions
	// EvalTimeout bounds one evaluator call. Zero disables the deadline.
	EvalTimeout time.Duration
	// Penalty is the objective value reported for infeasible or failed
	// evaluations. Zero selects DefaultPenalty.
	Penalty float64
}

// DefaultPenalty is the finite large-penalty objective value assigned to
// infeasible decodes and failed evaluations.
const DefaultPenalty = 1e6

// Result is the outcome of scoring one design vector.
type Result struct {
	// Imputed is the repaired vector: active slots coerced into domain,
	// inactive slots reset to placeholders.
	Imputed []float64
	// Objectives holds one minimization value per declared objective.
	Objectives []float64
	// Constraints holds one normalized violation per declared constraint;
	// g <= 0 is satisfied.
	Constraints []float64
	// Feasible is true when the vector decoded to a valid architecture and
	// the evaluation converged.
	Feasible bool
	// Infeasibility is set when structural decoding failed.
	Infeasibility *design.Infeasibility
	// Failure is set when the external evaluation failed.
	Failure *evaluation.Failure
}

// Stats are aggregate scoring diagnostics.
type Stats struct {
	Evaluations     uint64
	Infeasible      uint64
	EvalFailures    uint64
	FeasibilityRate float64
	FailureRate     float64
}

// Problem is the optimization problem facade. All fields are immutable after
// New; scoring calls are independent and safe to issue concurrently.
type Problem struct {
	space       *design.Space
	objectives  []Objective
	constraints []Constraint
	bridge      *evaluation.Bridge
	conditions  evaluation.Conditions
	penalty     float64

	evaluations  atomic.Uint64
	infeasible   atomic.Uint64
	evalFailures atomic.Uint64
}

// New builds a Problem from a validated configuration.
func New(cfg Config) (*Problem, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("problem: nil catalog")
	}
	if len(cfg.Objectives) == 0 {
		return nil, fmt.Errorf("problem: no objectives to design for")
	}
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("problem: nil evaluator")
	}

	space, err := design.NewSpace(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	if space.Len() == 0 {
		return nil, fmt.Errorf("problem: no design variables to design with")
	}

	bridge, err := evaluation.NewBridge(cfg.Evaluator, cfg.EvalTimeout)
	if err != nil {
		return nil, err
	}

	penalty := cfg.Penalty
	if penalty == 0 {
		penalty = DefaultPenalty
	}

	return &Problem{
		space:       space,
		objectives:  append([]Objective(nil), cfg.Objectives...),
		constraints: append([]Constraint(nil), cfg.Constraints...),
		bridge:      bridge,
		conditions:  cfg.Conditions,
		penalty:     penalty,
	}, nil
}

// Space returns the immutable design-variable specification.
func (p *Problem) Space() *design.Space { return p.space }

// Objectives returns the declared objectives.
func (p *Problem) Objectives() []Objective {
	return append([]Objective(nil), p.objectives...)
}

// Constraints returns the declared constraints.
func (p *Problem) Constraints() []Constraint {
	return append([]Constraint(nil), p.constraints...)
}

// Sample draws a random design vector respecting every slot's domain.
func (p *Problem) Sample(rng *rand.Rand) []float64 {
	return p.space.Sample(rng)
}

// Evaluate scores one design vector. Identical vectors always yield
// identical results for a fixed catalog and evaluator. The only error
// condition is a malformed vector (*design.EncodingError); infeasible
// decodes and evaluation failures come back as penalized Results.
func (p *Problem) Evaluate(ctx context.Context, x []float64) (*Result, error) {
	decoded, err := p.space.Decode(x)
	if err != nil {
		return nil, err
	}
	p.evaluations.Add(1)

	if !decoded.Feasible() {
		p.infeasible.Add(1)
		return p.penalized(decoded.Imputed, decoded.Infeasibility, nil), nil
	}

	metrics, failure := p.bridge.Score(ctx, decoded.Architecture, p.conditions)
	if failure != nil {
		p.evalFailures.Add(1)
		return p.penalized(decoded.Imputed, nil, failure), nil
	}

	res := &Result{
		Imputed:     decoded.Imputed,
		Objectives:  make([]float64, len(p.objectives)),
		Constraints: make([]float64, len(p.constraints)),
		Feasible:    true,
	}
	for i, obj := range p.objectives {
		v := metrics[obj.Metric]
		if obj.Direction == Maximize {
			v = -v
		}
		res.Objectives[i] = v
	}
	for i, con := range p.constraints {
		res.Constraints[i] = con.violation(metrics[con.Metric])
	}
	return res, nil
}

// violation normalizes a metric against the constraint limit so that
// positive values measure relative violation.
func (c Constraint) violation(v float64) float64 {
	scale := c.Limit
	if scale < 0 {
		scale = -scale
	}
	if scale < 1 {
		scale = 1
	}
	if c.Direction == LessEqual {
		return (v - c.Limit) / scale
	}
	return (c.Limit - v) / scale
}

func (p *Problem) penalized(imputed []float64, inf *design.Infeasibility, fail *evaluation.Failure) *Result {
	res := &Result{
		Imputed:       imputed,
		Objectives:    make([]float64, len(p.objectives)),
		Constraints:   make([]float64, len(p.constraints)),
		Infeasibility: inf,
		Failure:       fail,
	}
	for i := range res.Objectives {
		res.Objectives[i] = p.penalty
	}
	for i := range res.Constraints {
		res.Constraints[i] = 1
	}
	return res
}

// Stats returns aggregate scoring diagnostics.
func (p *Problem) Stats() Stats {
	s := Stats{
		Evaluations:  p.evaluations.Load(),
		Infeasible:   p.infeasible.Load(),
		EvalFailures: p.evalFailures.Load(),
	}
	if s.Evaluations > 0 {
		s.FeasibilityRate = 1 - float64(s.Infeasible)/float64(s.Evaluations)
		s.FailureRate = float64(s.EvalFailures) / float64(s.Evaluations)
	}
	return s
}
