package evaluation

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Surrogate is a deterministic closed-form stand-in for the external cycle
// solver. It reproduces the qualitative trends of a turbofan cycle (TSFC
// falling with bypass ratio and overall pressure ratio, weight and diameter
// growing with bypass ratio, NOx growing with pressure and temperature) from
// simple correlations, including the solver's characteristic failure modes
// as deterministic non-convergence regions.
//
// It exists so the facade, the driver, and the tests can run without the
// real solver; it makes no claim of physical accuracy.
type Surrogate struct{}

// NewSurrogate returns the surrogate cycle evaluator.
func NewSurrogate() *Surrogate { return &Surrogate{} }

// Analyze implements Evaluator.
func (s *Surrogate) Analyze(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byFunction := make(map[string]ComponentSpec, len(req.Components))
	for _, c := range req.Components {
		byFunction[c.Function] = c
	}

	attr := func(fn, name string, fallback float64) float64 {
		c, ok := byFunction[fn]
		if !ok {
			return fallback
		}
		if v, ok := c.Attributes[name]; ok {
			return v
		}
		return fallback
	}
	option := func(fn, name, fallback string) string {
		c, ok := byFunction[fn]
		if !ok {
			return fallback
		}
		if v, ok := c.Options[name]; ok {
			return v
		}
		return fallback
	}
	has := func(fn string) bool { _, ok := byFunction[fn]; return ok }

	fpr := attr("bypass", "fpr", 1.0)
	bpr := 0.0
	if has("flow_split") {
		bpr = attr("flow_split", "bpr", 0)
	}
	opr := fpr *
		attr("low_compression", "pr", 1.0) *
		attr("mid_compression", "pr", 1.0) *
		attr("high_compression", "pr", 8.0)
	tit := req.Conditions.TurbineInletTemp
	if tit <= 0 {
		tit = 1450
	}

	// Deterministic non-convergence regions, mimicking the real solver's
	// balance failures.
	if opr > 55 {
		return &Response{Converged: false, Reason: "pressure balance diverged"}, nil
	}
	shaft := byFunction["power_transmission"].ID
	if shaft == "single_shaft" && bpr > 6 {
		return &Response{Converged: false, Reason: "single spool cannot balance high bypass"}, nil
	}

	effHPT := attr("high_expansion", "eff", 0.88)
	effLPT := effHPT
	if has("low_expansion") {
		effLPT = attr("low_expansion", "eff", 0.88)
	}
	effAvg := (effHPT + effLPT) / 2

	// Specific thrust falls with bypass ratio; mass flow sizes the engine.
	specificThrust := 950 / (1 + 0.55*bpr) // N per kg/s
	massFlow := req.Conditions.Thrust / specificThrust

	fuelFactor := 1.0
	noxFuel := 1.0
	switch option("combustion", "fuel", "jet-a") {
	case "h2":
		fuelFactor, noxFuel = 0.36, 0.6
	case "methane":
		fuelFactor, noxFuel = 0.85, 0.8
	case "jp-7":
		fuelFactor, noxFuel = 1.02, 1.1
	}

	tsfc := (8 + 14*math.Exp(-bpr/5) + 6*math.Exp(-opr/22)) * fuelFactor
	tsfc *= 1 + (0.93 - effAvg)
	if has("mixing") {
		tsfc *= 0.98
	}
	if has("reheat") {
		tsfc *= 1.06
	}
	if has("offtake") {
		tsfc *= 1 + attr("offtake", "frac", 0.05)
	}
	if has("intercooling") {
		tsfc *= 1 - 0.04*attr("intercooling", "effectiveness", 0.7)
	}

	stages := attr("high_compression", "stages", 10)
	shaftCount := map[string]float64{"single_shaft": 1, "two_shaft": 2, "three_shaft": 3}[shaft]
	weightTerms := []float64{
		42 * math.Pow(massFlow, 0.8),
		55 * massFlow * bpr / 10,
		28 * stages,
		140 * shaftCount,
	}
	if has("gear_reduction") {
		weightTerms = append(weightTerms, 110*attr("gear_reduction", "ratio", 2))
	}
	if has("intercooling") {
		weightTerms = append(weightTerms, 380)
	}
	if has("reheat") {
		weightTerms = append(weightTerms, 220)
	}
	if byFunction["bypass"].ID == "crtf_fan" {
		weightTerms = append(weightTerms, 90)
	}
	weight := floats.Sum(weightTerms)

	airComponents := 0.0
	for _, c := range req.Connections {
		if c.Flow == "air" {
			airComponents++
		}
	}
	length := 0.9 + 0.28*airComponents
	diameter := 0.021 * math.Sqrt(massFlow*(1+bpr))

	jetMach := 1.55 - 0.085*bpr
	if has("mixing") {
		jetMach -= 0.12
	}
	if jetMach < 0.3 {
		jetMach = 0.3
	}

	nox := math.Pow(opr/30, 1.5) * math.Pow(tit/1450, 2) * noxFuel
	if has("reheat") {
		nox *= 1.18
	}

	noise := 118 - 2.4*bpr
	if has("mixing") {
		noise -= 4
	}
	if has("gear_reduction") {
		noise -= 3
	}
	if byFunction["bypass"].ID == "crtf_fan" {
		noise += 3
	}

	return &Response{
		Converged: true,
		Metrics: map[string]float64{
			MetricTSFC:     tsfc,
			MetricWeight:   weight,
			MetricLength:   length,
			MetricDiameter: diameter,
			MetricNOx:      nox,
			MetricNoise:    noise,
			MetricJetMach:  jetMach,
		},
	}, nil
}
