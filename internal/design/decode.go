package design

import (
	"fmt"
	"math"

	"github.com/archlab/turbarch/internal/catalog"
	"github.com/archlab/turbarch/internal/graph"
)

// Decoded is the outcome of decoding one design vector. Exactly one of
// Architecture and Infeasibility is set. Imputed is the input vector with
// active slots coerced into their domains and inactive slots reset to their
// don't-care placeholders; optimizers may feed it back as a repaired sample.
type Decoded struct {
	Architecture  *graph.Architecture
	Infeasibility *Infeasibility
	Assignment    *Assignment
	Imputed       []float64
}

// Feasible reports whether decoding produced a valid architecture instance.
func (d *Decoded) Feasible() bool { return d.Architecture != nil }

// Decode converts a design vector into an architecture instance or a
// structured infeasibility. It is total over well-formed vectors: only a
// length mismatch or a non-finite slot yields an error (*EncodingError);
// any in-domain vector yields a feasibility outcome, never a panic.
//
// Variables are decided in declaration order. Each variable's activation
// condition is evaluated against the already-decided prefix; inactive slots
// are skipped and their input values ignored, so vectors differing only in
// inactive slots decode identically.
func (s *Space) Decode(x []float64) (*Decoded, error) {
	if len(x) != len(s.vars) {
		return nil, &EncodingError{
			Slot:   -1,
			Detail: fmt.Sprintf("length %d does not match specification length %d", len(x), len(s.vars)),
		}
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &EncodingError{Slot: i, Detail: fmt.Sprintf("non-finite value %v", v)}
		}
	}

	imputed := make([]float64, len(s.vars))
	decided := make([]int, len(s.vars))
	activeMask := make([]bool, len(s.vars))

	for i := range s.vars {
		v := &s.vars[i]
		if !v.active(decided, activeMask) {
			imputed[i] = v.ImputedValue()
			decided[i] = int(imputed[i])
			continue
		}
		activeMask[i] = true
		value, idx := v.coerce(x[i])
		imputed[i] = value
		decided[i] = idx
	}

	asg := s.assignment(imputed, decided, activeMask)
	if inf := Check(s.cat, asg); inf != nil {
		return &Decoded{Infeasibility: inf, Assignment: asg, Imputed: imputed}, nil
	}

	arch, err := s.build(asg)
	if err != nil {
		// Check guarantees a buildable assignment; anything else is a
		// programming error worth surfacing loudly in tests.
		panic(fmt.Sprintf("design: feasible assignment failed to build: %v", err))
	}
	return &Decoded{Architecture: arch, Assignment: asg, Imputed: imputed}, nil
}

// assignment materializes the decided slots into selections, attribute
// values, and connections.
func (s *Space) assignment(imputed []float64, decided []int, activeMask []bool) *Assignment {
	asg := &Assignment{
		Selection:  make(map[string]string, len(s.cat.Functions)),
		Attributes: make(map[string]map[string]graph.AttrValue),
	}

	for i := range s.vars {
		v := &s.vars[i]
		if !activeMask[i] {
			continue
		}
		switch v.Role {
		case SelectionVar:
			opt := v.Options[decided[i]]
			if opt == NoneOption {
				asg.Selection[v.Function] = ""
			} else {
				asg.Selection[v.Function] = opt
			}

		case AttributeVar:
			attrs := asg.Attributes[v.Component]
			if attrs == nil {
				attrs = make(map[string]graph.AttrValue)
				asg.Attributes[v.Component] = attrs
			}
			switch v.Kind {
			case catalog.Continuous:
				attrs[v.Attr] = graph.AttrValue{Kind: catalog.Continuous, Number: imputed[i]}
			case catalog.Integer:
				attrs[v.Attr] = graph.AttrValue{Kind: catalog.Integer, Number: v.Levels[decided[i]]}
			case catalog.Categorical:
				attrs[v.Attr] = graph.AttrValue{Kind: catalog.Categorical, Option: v.Options[decided[i]]}
			}

		case ConnectionVar:
			opt := v.Options[decided[i]]
			if opt == NoneOption {
				continue
			}
			rule := s.cat.Rules[v.Rule]
			// Option order mirrors rule partner order, offset by the
			// optional leading "none".
			offset := 0
			if v.Options[0] == NoneOption {
				offset = 1
			}
			asg.Connections = append(asg.Connections, Connection{
				From: rule.From,
				To:   rule.To[decided[i]-offset],
			})
		}
	}

	return asg
}

// build converts a checked assignment into an architecture graph. Nodes are
// added in function declaration order, edges in rule declaration order.
func (s *Space) build(asg *Assignment) (*graph.Architecture, error) {
	arch := graph.New()
	for _, f := range s.cat.Functions {
		sel := asg.Selection[f.ID]
		if sel == "" {
			continue
		}
		if err := arch.AddNode(f.ID, sel, asg.Attributes[sel]); err != nil {
			return nil, err
		}
	}
	for _, conn := range asg.Connections {
		port, ok := s.cat.Port(conn.From)
		if !ok {
			return nil, fmt.Errorf("unknown port %s", conn.From)
		}
		arch.Connect(conn.From, conn.To, port.Flow)
	}
	return arch, nil
}
