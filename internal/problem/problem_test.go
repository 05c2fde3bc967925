package problem

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlab/turbarch/internal/catalog"
	"github.com/archlab/turbarch/internal/design"
	"github.com/archlab/turbarch/internal/evaluation"
)

type evaluatorFunc func(ctx context.Context, req *evaluation.Request) (*evaluation.Response, error)

func (f evaluatorFunc) Analyze(ctx context.Context, req *evaluation.Request) (*evaluation.Response, error) {
	return f(ctx, req)
}

func fixedMetrics(metrics map[string]float64) evaluatorFunc {
	return func(context.Context, *evaluation.Request) (*evaluation.Response, error) {
		return &evaluation.Response{Converged: true, Metrics: metrics}, nil
	}
}

// setOption overwrites the named categorical slot with the index of the
// given option.
func setOption(tb testing.TB, s *design.Space, x []float64, name, option string) {
	tb.Helper()
	for i, v := range s.Variables() {
		if v.Name != name {
			continue
		}
		for j, opt := range v.Options {
			if opt == option {
				x[i] = float64(j)
				return
			}
		}
		tb.Fatalf("option %q not in domain of %s", option, name)
	}
	tb.Fatalf("no variable %q", name)
}

// turbojetVector builds a feasible single-spool straight jet on the built-in
// catalog.
func turbojetVector(tb testing.TB, s *design.Space) []float64 {
	tb.Helper()
	x := s.Imputed()
	for name, option := range map[string]string{
		"select_intake":             "inlet",
		"select_bypass":             design.NoneOption,
		"select_flow_split":         design.NoneOption,
		"select_low_compression":    design.NoneOption,
		"select_mid_compression":    design.NoneOption,
		"select_intercooling":       design.NoneOption,
		"select_high_compression":   "hpc",
		"select_combustion":         "burner",
		"select_high_expansion":     "hpt",
		"select_reheat":             design.NoneOption,
		"select_low_expansion":      design.NoneOption,
		"select_mixing":             design.NoneOption,
		"select_core_exhaust":       "conv_nozzle",
		"select_bypass_exhaust":     design.NoneOption,
		"select_power_transmission": "single_shaft",
		"select_gear_reduction":     design.NoneOption,
		"select_offtake":            design.NoneOption,
		"connect_inlet_out":         "hpc.in",
		"connect_hpc_out":           "burner.in",
		"connect_hpc_bleed_out":     design.NoneOption,
		"connect_burner_out":        "hpt.in",
		"connect_hpt_out":           "conv_nozzle.in",
		"connect_hpc_shaft":         "single_shaft.spool",
		"connect_hpt_shaft":         "single_shaft.spool",
	} {
		setOption(tb, s, x, name, option)
	}
	return x
}

func TestNewValidation(t *testing.T) {
	objectives := []Objective{{Metric: evaluation.MetricTSFC}}

	_, err := New(Config{Objectives: objectives, Evaluator: evaluation.NewSurrogate()})
	assert.ErrorContains(t, err, "catalog")

	_, err = New(Config{Catalog: catalog.Turbofan(), Evaluator: evaluation.NewSurrogate()})
	assert.ErrorContains(t, err, "objectives")

	_, err = New(Config{Catalog: catalog.Turbofan(), Objectives: objectives})
	assert.ErrorContains(t, err, "evaluator")
}

func TestDefaultForCatalog(t *testing.T) {
	ref, err := Default(evaluation.NewSurrogate(), time.Second)
	require.NoError(t, err)

	p, err := DefaultForCatalog(catalog.Turbofan(), evaluation.NewSurrogate(), time.Second)
	require.NoError(t, err)

	assert.Equal(t, ref.Objectives(), p.Objectives())
	assert.Equal(t, ref.Constraints(), p.Constraints())
	assert.Equal(t, ref.Space().Len(), p.Space().Len())

	cat := &catalog.Catalog{
		Name: "mini",
		Functions: []catalog.Function{
			{ID: "f", Required: true, Candidates: []string{"c"}},
		},
		Components: []catalog.Component{
			{ID: "c", Fulfills: "f"},
		},
	}
	p, err = DefaultForCatalog(cat, evaluation.NewSurrogate(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "mini", p.Space().Catalog().Name)
}

func TestEvaluateFeasible(t *testing.T) {
	p, err := Default(evaluation.NewSurrogate(), time.Second)
	require.NoError(t, err)

	x := turbojetVector(t, p.Space())
	res, err := p.Evaluate(context.Background(), x)
	require.NoError(t, err)

	assert.True(t, res.Feasible)
	assert.Nil(t, res.Infeasibility)
	assert.Nil(t, res.Failure)
	require.Len(t, res.Objectives, 3)
	require.Len(t, res.Constraints, 4)
	for i, v := range res.Objectives {
		assert.Less(t, v, DefaultPenalty, "objective %d", i)
	}
	// A straight jet exhausts well past the jet-Mach limit.
	assert.Greater(t, res.Constraints[3], 0.0)
}

func TestEvaluateIdempotent(t *testing.T) {
	p, err := Default(evaluation.NewSurrogate(), time.Second)
	require.NoError(t, err)

	x := turbojetVector(t, p.Space())
	r1, err := p.Evaluate(context.Background(), x)
	require.NoError(t, err)
	r2, err := p.Evaluate(context.Background(), x)
	require.NoError(t, err)

	assert.Equal(t, r1.Imputed, r2.Imputed)
	assert.Equal(t, r1.Objectives, r2.Objectives)
	assert.Equal(t, r1.Constraints, r2.Constraints)
}

func TestEvaluateInfeasiblePenalized(t *testing.T) {
	p, err := Default(evaluation.NewSurrogate(), time.Second)
	require.NoError(t, err)

	// Route the inlet at the deselected fan, starving the HPC.
	x := turbojetVector(t, p.Space())
	setOption(t, p.Space(), x, "connect_inlet_out", "fan.in")

	res, err := p.Evaluate(context.Background(), x)
	require.NoError(t, err)

	assert.False(t, res.Feasible)
	require.NotNil(t, res.Infeasibility)
	assert.Nil(t, res.Failure)
	for _, v := range res.Objectives {
		assert.Equal(t, DefaultPenalty, v)
	}
	for _, g := range res.Constraints {
		assert.Equal(t, 1.0, g)
	}
}

func TestEvaluateFailurePenalized(t *testing.T) {
	stuck := evaluatorFunc(func(context.Context, *evaluation.Request) (*evaluation.Response, error) {
		return &evaluation.Response{Converged: false, Reason: "pressure balance diverged"}, nil
	})
	p, err := Default(stuck, time.Second)
	require.NoError(t, err)

	res, err := p.Evaluate(context.Background(), turbojetVector(t, p.Space()))
	require.NoError(t, err)

	assert.False(t, res.Feasible)
	require.NotNil(t, res.Failure)
	assert.Equal(t, evaluation.ReasonNonConverged, res.Failure.Reason)
	for _, v := range res.Objectives {
		assert.Equal(t, DefaultPenalty, v)
	}
}

func TestEvaluateEvaluatorErrorPenalized(t *testing.T) {
	broken := evaluatorFunc(func(context.Context, *evaluation.Request) (*evaluation.Response, error) {
		return nil, errors.New("solver exploded")
	})
	p, err := Default(broken, time.Second)
	require.NoError(t, err)

	res, err := p.Evaluate(context.Background(), turbojetVector(t, p.Space()))
	require.NoError(t, err)
	require.NotNil(t, res.Failure)
	assert.Equal(t, evaluation.ReasonError, res.Failure.Reason)
}

func TestEvaluateMalformedVector(t *testing.T) {
	p, err := Default(evaluation.NewSurrogate(), time.Second)
	require.NoError(t, err)

	_, err = p.Evaluate(context.Background(), []float64{1, 2, 3})
	var encErr *design.EncodingError
	require.ErrorAs(t, err, &encErr)

	// Malformed vectors never count as evaluations.
	assert.Zero(t, p.Stats().Evaluations)
}

func TestObjectiveDirections(t *testing.T) {
	eval := fixedMetrics(map[string]float64{
		evaluation.MetricTSFC:  10,
		evaluation.MetricNoise: 95,
	})
	p, err := New(Config{
		Catalog: catalog.Turbofan(),
		Objectives: []Objective{
			{Metric: evaluation.MetricTSFC, Direction: Minimize},
			{Metric: evaluation.MetricNoise, Direction: Maximize},
		},
		Evaluator: eval,
	})
	require.NoError(t, err)

	res, err := p.Evaluate(context.Background(), turbojetVector(t, p.Space()))
	require.NoError(t, err)
	assert.Equal(t, []float64{10, -95}, res.Objectives)
}

func TestConstraintViolation(t *testing.T) {
	tests := []struct {
		name string
		c    Constraint
		v    float64
		want float64
	}{
		{"satisfied upper", Constraint{Direction: LessEqual, Limit: 4.5}, 2.25, -0.5},
		{"violated upper", Constraint{Direction: LessEqual, Limit: 4.5}, 9, 1},
		{"satisfied lower", Constraint{Direction: GreaterEqual, Limit: 2}, 3, -0.5},
		{"violated lower", Constraint{Direction: GreaterEqual, Limit: 2}, 1, 0.5},
		{"small limit keeps unit scale", Constraint{Direction: LessEqual, Limit: 0.5}, 1.5, 1},
		{"negative limit scales by magnitude", Constraint{Direction: LessEqual, Limit: -2}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.c.violation(tt.v), 1e-12)
		})
	}
}

func TestStats(t *testing.T) {
	p, err := Default(evaluation.NewSurrogate(), time.Second)
	require.NoError(t, err)

	feasible := turbojetVector(t, p.Space())
	infeasible := turbojetVector(t, p.Space())
	setOption(t, p.Space(), infeasible, "connect_inlet_out", "fan.in")

	for i := 0; i < 3; i++ {
		_, err := p.Evaluate(context.Background(), feasible)
		require.NoError(t, err)
	}
	_, err = p.Evaluate(context.Background(), infeasible)
	require.NoError(t, err)

	s := p.Stats()
	assert.Equal(t, uint64(4), s.Evaluations)
	assert.Equal(t, uint64(1), s.Infeasible)
	assert.Equal(t, uint64(0), s.EvalFailures)
	assert.InDelta(t, 0.75, s.FeasibilityRate, 1e-12)
	assert.InDelta(t, 0.0, s.FailureRate, 1e-12)
}

func TestEvaluateTimeout(t *testing.T) {
	slow := evaluatorFunc(func(ctx context.Context, _ *evaluation.Request) (*evaluation.Response, error) {
		select {
		case <-time.After(5 * time.Second):
			return &evaluation.Response{Converged: true}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	p, err := Default(slow, 20*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	res, err := p.Evaluate(context.Background(), turbojetVector(t, p.Space()))
	require.NoError(t, err)
	require.NotNil(t, res.Failure)
	assert.Equal(t, evaluation.ReasonTimeout, res.Failure.Reason)
	assert.Less(t, time.Since(start), time.Second)
}
