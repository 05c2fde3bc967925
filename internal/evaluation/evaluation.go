// Package evaluation is the boundary to the external cycle-analysis
// evaluator. The Bridge serializes architecture instances into the
// evaluator's input schema, enforces a timeout on the (possibly slow,
// possibly failing) call, and converts every failure mode into an ordinary
// result value so an optimization campaign is never aborted by one bad
// sample.
package evaluation

import (
	"context"

	"github.com/archlab/turbarch/internal/catalog"
	"github.com/archlab/turbarch/internal/graph"
)

// Metric names produced by cycle analysis.
const (
	MetricTSFC     = "tsfc"
	MetricWeight   = "weight"
	MetricLength   = "length"
	MetricDiameter = "diameter"
	MetricNOx      = "nox"
	MetricNoise    = "noise"
	MetricJetMach  = "jet_mach"
)

// Conditions is the design operating condition the cycle is sized for.
type Conditions struct {
	Mach             float64 `json:"mach"`
	Altitude         float64 `json:"altitude"`           // ft
	Thrust           float64 `json:"thrust"`             // N
	TurbineInletTemp float64 `json:"turbine_inlet_temp"` // C
	BleedOfftake     float64 `json:"bleed_offtake"`      // kg/s
	PowerOfftake     float64 `json:"power_offtake"`      // W
}

// ComponentSpec is one selected component in the evaluator input schema.
type ComponentSpec struct {
	Function   string             `json:"function"`
	ID         string             `json:"id"`
	Attributes map[string]float64 `json:"attributes,omitempty"`
	Options    map[string]string  `json:"options,omitempty"`
}

// ConnectionSpec is one connection in the evaluator input schema.
type ConnectionSpec struct {
	From string           `json:"from"`
	To   string           `json:"to"`
	Flow catalog.FlowType `json:"flow"`
}

// Request is the structured architecture description sent to the evaluator.
type Request struct {
	Components  []ComponentSpec  `json:"components"`
	Connections []ConnectionSpec `json:"connections"`
	Conditions  Conditions       `json:"conditions"`
}

// Response is the evaluator's structured result: either converged metrics or
// a failure reason.
type Response struct {
	Converged bool               `json:"converged"`
	Reason    string             `json:"reason,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Evaluator is the external cycle-analysis solver. Analyze may block for a
// long time and must honor context cancellation where it can; the Bridge
// additionally guards it with a hard timeout.
type Evaluator interface {
	Analyze(ctx context.Context, req *Request) (*Response, error)
}

// NewRequest serializes an architecture instance into the evaluator input
// schema. Components appear in node order, connections in edge order.
func NewRequest(arch *graph.Architecture, cond Conditions) *Request {
	req := &Request{Conditions: cond}
	for _, n := range arch.Nodes() {
		spec := ComponentSpec{Function: n.Function, ID: n.Component}
		for name, v := range n.Attributes {
			if v.Kind == catalog.Categorical {
				if spec.Options == nil {
					spec.Options = make(map[string]string)
				}
				spec.Options[name] = v.Option
			} else {
				if spec.Attributes == nil {
					spec.Attributes = make(map[string]float64)
				}
				spec.Attributes[name] = v.Number
			}
		}
		req.Components = append(req.Components, spec)
	}
	for _, e := range arch.Edges() {
		req.Connections = append(req.Connections, ConnectionSpec{
			From: e.From.String(),
			To:   e.To.String(),
			Flow: e.Flow,
		})
	}
	return req
}
