// Package driver provides a multi-objective evolutionary driver over an
// architecting problem. The problem facade stays optimizer-agnostic; this
// NSGA-II implementation is one consumer of it, useful for campaigns that do
// not bring their own optimizer.
package driver

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/archlab/turbarch/internal/design"
	"github.com/archlab/turbarch/internal/problem"
)

// Config contains configuration for the driver.
type Config struct {
	Problem *problem.Problem

	// PopSize is the population size. Defaults to 40.
	PopSize int
	// Generations is the number of generations to run. Defaults to 30.
	Generations int
	// CrossoverRate is the per-pair crossover probability. Defaults to 0.9.
	CrossoverRate float64
	// MutationRate is the per-slot mutation probability. Defaults to 1/n.
	MutationRate float64
	// Workers bounds concurrent scoring calls. Defaults to 1.
	Workers int
	// Seed fixes the random stream for reproducible runs.
	Seed int64
}

// Individual is one evaluated design vector.
type Individual struct {
	X           []float64
	Objectives  []float64
	Constraints []float64
	Feasible    bool

	rank     int
	crowding float64
}

// violation is the total constraint violation, zero when satisfied.
func (ind *Individual) violation() float64 {
	v := 0.0
	for _, g := range ind.Constraints {
		if g > 0 {
			v += g
		}
	}
	return v
}

// Result is the outcome of one optimization run.
type Result struct {
	// Pareto holds the final non-dominated feasible individuals.
	Pareto []Individual
	// Evaluations is the number of scoring calls issued.
	Evaluations int
	// Generations is the number of generations completed.
	Generations int
}

// NSGA2 runs non-dominated-sorting evolutionary search with
// constraint-domination tournaments, simulated binary crossover on
// continuous slots, and uniform reset mutation on discrete slots.
type NSGA2 struct {
	cfg  Config
	vars []design.Variable
	rng  *rand.Rand
}

// New creates a driver for the given problem.
func New(cfg Config) (*NSGA2, error) {
	if cfg.Problem == nil {
		return nil, fmt.Errorf("driver: nil problem")
	}
	if cfg.PopSize < 2 {
		cfg.PopSize = 40
	}
	if cfg.PopSize%2 != 0 {
		cfg.PopSize++
	}
	if cfg.Generations < 1 {
		cfg.Generations = 30
	}
	if cfg.CrossoverRate <= 0 {
		cfg.CrossoverRate = 0.9
	}
	vars := cfg.Problem.Space().Variables()
	if cfg.MutationRate <= 0 {
		cfg.MutationRate = 1 / float64(len(vars))
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &NSGA2{
		cfg:  cfg,
		vars: vars,
		rng:  rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Run executes the optimization until the generation budget is exhausted or
// the context is cancelled.
func (o *NSGA2) Run(ctx context.Context) (*Result, error) {
	pop := make([]*Individual, o.cfg.PopSize)
	for i := range pop {
		pop[i] = &Individual{X: o.cfg.Problem.Sample(o.rng)}
	}
	evaluations := 0
	if err := o.evaluateAll(ctx, pop); err != nil {
		return nil, err
	}
	evaluations += len(pop)
	rankAndCrowd(pop)

	gen := 0
	for ; gen < o.cfg.Generations; gen++ {
		select {
		case <-ctx.Done():
			return o.result(pop, evaluations, gen), ctx.Err()
		default:
		}

		offspring := o.breed(pop)
		if err := o.evaluateAll(ctx, offspring); err != nil {
			return nil, err
		}
		evaluations += len(offspring)

		pop = survive(append(pop, offspring...), o.cfg.PopSize)
	}

	return o.result(pop, evaluations, gen), nil
}

func (o *NSGA2) result(pop []*Individual, evaluations, generations int) *Result {
	res := &Result{Evaluations: evaluations, Generations: generations}
	for _, ind := range pop {
		if ind.rank == 0 && ind.Feasible {
			res.Pareto = append(res.Pareto, *ind)
		}
	}
	return res
}

// evaluateAll scores a batch, bounded by the worker budget. The facade is
// reentrant, so scoring calls run concurrently without shared state.
func (o *NSGA2) evaluateAll(ctx context.Context, batch []*Individual) error {
	sem := make(chan struct{}, o.cfg.Workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, ind := range batch {
		wg.Add(1)
		sem <- struct{}{}
		go func(ind *Individual) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := o.cfg.Problem.Evaluate(ctx, ind.X)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			// Keep the repaired vector so crossover works on coherent
			// parents.
			ind.X = res.Imputed
			ind.Objectives = res.Objectives
			ind.Constraints = res.Constraints
			ind.Feasible = res.Feasible
		}(ind)
	}
	wg.Wait()
	return firstErr
}

func (o *NSGA2) breed(pop []*Individual) []*Individual {
	offspring := make([]*Individual, 0, o.cfg.PopSize)
	for len(offspring) < o.cfg.PopSize {
		p1 := o.tournament(pop)
		p2 := o.tournament(pop)
		c1 := append([]float64(nil), p1.X...)
		c2 := append([]float64(nil), p2.X...)
		if o.rng.Float64() < o.cfg.CrossoverRate {
			o.crossover(c1, c2)
		}
		o.mutate(c1)
		o.mutate(c2)
		offspring = append(offspring, &Individual{X: c1}, &Individual{X: c2})
	}
	return offspring[:o.cfg.PopSize]
}

// tournament picks the better of two random individuals under
// constraint-domination: feasible beats infeasible, lower violation breaks
// infeasible ties, rank then crowding breaks feasible ties.
func (o *NSGA2) tournament(pop []*Individual) *Individual {
	a := pop[o.rng.Intn(len(pop))]
	b := pop[o.rng.Intn(len(pop))]
	if better(a, b) {
		return a
	}
	return b
}

func better(a, b *Individual) bool {
	if a.Feasible != b.Feasible {
		return a.Feasible
	}
	if !a.Feasible {
		return a.violation() < b.violation()
	}
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	return a.crowding > b.crowding
}

// crossover applies simulated binary crossover (eta 15) to continuous slots
// and uniform exchange to discrete slots.
func (o *NSGA2) crossover(c1, c2 []float64) {
	const eta = 15.0
	for i := range o.vars {
		v := &o.vars[i]
		if v.Discrete() {
			if o.rng.Float64() < 0.5 {
				c1[i], c2[i] = c2[i], c1[i]
			}
			continue
		}
		if o.rng.Float64() >= 0.5 || c1[i] == c2[i] {
			continue
		}
		u := o.rng.Float64()
		var beta float64
		if u <= 0.5 {
			beta = math.Pow(2*u, 1/(eta+1))
		} else {
			beta = math.Pow(1/(2*(1-u)), 1/(eta+1))
		}
		lo, hi := v.Bounds()
		x1, x2 := c1[i], c2[i]
		c1[i] = clamp(0.5*((1+beta)*x1+(1-beta)*x2), lo, hi)
		c2[i] = clamp(0.5*((1-beta)*x1+(1+beta)*x2), lo, hi)
	}
}

// mutate applies polynomial mutation (eta 20) to continuous slots and a
// uniform reset to discrete slots.
func (o *NSGA2) mutate(x []float64) {
	const eta = 20.0
	for i := range o.vars {
		if o.rng.Float64() >= o.cfg.MutationRate {
			continue
		}
		v := &o.vars[i]
		lo, hi := v.Bounds()
		if v.Discrete() {
			x[i] = lo + float64(o.rng.Intn(int(hi-lo)+1))
			continue
		}
		u := o.rng.Float64()
		var delta float64
		if u < 0.5 {
			delta = math.Pow(2*u, 1/(eta+1)) - 1
		} else {
			delta = 1 - math.Pow(2*(1-u), 1/(eta+1))
		}
		x[i] = clamp(x[i]+delta*(hi-lo), lo, hi)
	}
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

// survive keeps the best n individuals by non-dominated rank, filling the
// cut front by crowding distance.
func survive(pop []*Individual, n int) []*Individual {
	rankAndCrowd(pop)
	sort.SliceStable(pop, func(i, j int) bool { return better(pop[i], pop[j]) })
	return pop[:n]
}

// rankAndCrowd assigns non-domination ranks and crowding distances.
// Infeasible individuals are pushed behind every feasible front.
func rankAndCrowd(pop []*Individual) {
	var feasible, infeasible []*Individual
	for _, ind := range pop {
		if ind.Feasible {
			feasible = append(feasible, ind)
		} else {
			infeasible = append(infeasible, ind)
		}
	}

	fronts := nondominatedFronts(feasible)
	for rank, front := range fronts {
		for _, ind := range front {
			ind.rank = rank
		}
		crowd(front)
	}
	for _, ind := range infeasible {
		ind.rank = len(fronts)
		ind.crowding = 0
	}
}

func dominates(a, b *Individual) bool {
	strict := false
	for i := range a.Objectives {
		if a.Objectives[i] > b.Objectives[i] {
			return false
		}
		if a.Objectives[i] < b.Objectives[i] {
			strict = true
		}
	}
	return strict
}

func nondominatedFronts(pop []*Individual) [][]*Individual {
	n := len(pop)
	dominatedBy := make([]int, n)
	dominating := make([][]int, n)
	var first []int
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if dominates(pop[i], pop[j]) {
				dominating[i] = append(dominating[i], j)
			} else if dominates(pop[j], pop[i]) {
				dominatedBy[i]++
			}
		}
		if dominatedBy[i] == 0 {
			first = append(first, i)
		}
	}

	var fronts [][]*Individual
	current := first
	for len(current) > 0 {
		front := make([]*Individual, 0, len(current))
		var next []int
		for _, i := range current {
			front = append(front, pop[i])
			for _, j := range dominating[i] {
				dominatedBy[j]--
				if dominatedBy[j] == 0 {
					next = append(next, j)
				}
			}
		}
		fronts = append(fronts, front)
		current = next
	}
	return fronts
}

// crowd assigns crowding distances within one front.
func crowd(front []*Individual) {
	if len(front) == 0 {
		return
	}
	nObj := len(front[0].Objectives)
	for _, ind := range front {
		ind.crowding = 0
	}
	values := make([]float64, len(front))
	for m := 0; m < nObj; m++ {
		sort.SliceStable(front, func(i, j int) bool {
			return front[i].Objectives[m] < front[j].Objectives[m]
		})
		for i, ind := range front {
			values[i] = ind.Objectives[m]
		}
		span := floats.Max(values) - floats.Min(values)
		front[0].crowding = math.Inf(1)
		front[len(front)-1].crowding = math.Inf(1)
		if span == 0 {
			continue
		}
		for i := 1; i < len(front)-1; i++ {
			front[i].crowding += (values[i+1] - values[i-1]) / span
		}
	}
}
