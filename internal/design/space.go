// Package design encodes the catalog's architectural decisions as a
// fixed-length vector of design variables with hierarchical activation, and
// maintains the bidirectional mapping between vectors and concrete
// architecture instances.
package design

import (
	"fmt"
	"math/rand"

	"github.com/archlab/turbarch/internal/catalog"
)

// Space is the ordered design-variable specification derived from a catalog.
// Construction is pure and deterministic: the same catalog always yields the
// same variables in the same order (selection variables in function
// declaration order, then attribute variables in component declaration
// order, then connection variables in rule declaration order). A Space is
// immutable after NewSpace and safe for concurrent use.
type Space struct {
	cat  *catalog.Catalog
	vars []Variable

	// selIdx maps a function ID to its selection variable index.
	selIdx map[string]int
	// selOption maps a component ID to its option index within the selection
	// variable of its function.
	selOption map[string]int
}

// NewSpace builds the design-variable specification for a catalog. The
// catalog is validated as part of construction; a malformed catalog yields a
// *catalog.SchemaError.
func NewSpace(cat *catalog.Catalog) (*Space, error) {
	if cat == nil {
		return nil, &catalog.SchemaError{Detail: "nil catalog"}
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}

	s := &Space{
		cat:       cat,
		selIdx:    make(map[string]int, len(cat.Functions)),
		selOption: make(map[string]int, len(cat.Components)),
	}

	// One categorical selection variable per function, over its candidates.
	// Optional functions get a trailing "none" option.
	for _, f := range cat.Functions {
		options := make([]string, 0, len(f.Candidates)+1)
		options = append(options, f.Candidates...)
		if !f.Required {
			options = append(options, NoneOption)
		}
		for i, id := range f.Candidates {
			s.selOption[id] = i
		}
		s.selIdx[f.ID] = len(s.vars)
		s.vars = append(s.vars, Variable{
			Name:     "select_" + f.ID,
			Kind:     catalog.Categorical,
			Options:  options,
			Role:     SelectionVar,
			Function: f.ID,
		})
	}

	// One variable per component attribute, active only when the component
	// is selected for its function.
	for _, comp := range cat.Components {
		req := []Requirement{{Var: s.selIdx[comp.Fulfills], Equals: s.selOption[comp.ID]}}
		for _, a := range comp.Attributes {
			s.vars = append(s.vars, Variable{
				Name:      comp.ID + "_" + a.Name,
				Kind:      a.Domain.Kind,
				Min:       a.Domain.Min,
				Max:       a.Domain.Max,
				Levels:    a.Domain.Levels,
				Options:   a.Domain.Options,
				Role:      AttributeVar,
				Component: comp.ID,
				Attr:      a.Name,
				Requires:  req,
			})
		}
	}

	// One categorical connection variable per rule, over the allowed
	// partners, active only when the source component is selected. Ports
	// whose cardinality admits absence get a leading "none" option.
	for ri, rule := range cat.Rules {
		src, ok := cat.Component(rule.From.Component)
		if !ok {
			return nil, &catalog.SchemaError{Entity: rule.From.String(), Detail: "unknown rule source"}
		}
		port, ok := src.Port(rule.From.Port)
		if !ok {
			return nil, &catalog.SchemaError{Entity: rule.From.String(), Detail: "unknown rule source port"}
		}

		options := make([]string, 0, len(rule.To)+1)
		if port.Cardinality != catalog.ExactlyOne {
			options = append(options, NoneOption)
		}
		for _, to := range rule.To {
			options = append(options, to.String())
		}

		s.vars = append(s.vars, Variable{
			Name:      "connect_" + rule.From.Component + "_" + rule.From.Port,
			Kind:      catalog.Categorical,
			Options:   options,
			Role:      ConnectionVar,
			Component: rule.From.Component,
			Rule:      ri,
			Requires:  []Requirement{{Var: s.selIdx[src.Fulfills], Equals: s.selOption[src.ID]}},
		})
	}

	return s, nil
}

// Catalog returns the catalog this space was built from.
func (s *Space) Catalog() *catalog.Catalog { return s.cat }

// Len returns the number of design variables.
func (s *Space) Len() int { return len(s.vars) }

// Variables returns a copy of the ordered variable specification.
func (s *Space) Variables() []Variable {
	out := make([]Variable, len(s.vars))
	copy(out, s.vars)
	return out
}

// Variable returns the variable at the given slot.
func (s *Space) Variable(i int) (*Variable, error) {
	if i < 0 || i >= len(s.vars) {
		return nil, fmt.Errorf("variable index %d out of range [0, %d)", i, len(s.vars))
	}
	return &s.vars[i], nil
}

// Imputed returns the canonical don't-care vector: every slot holds its
// imputed placeholder value.
func (s *Space) Imputed() []float64 {
	x := make([]float64, len(s.vars))
	for i := range s.vars {
		x[i] = s.vars[i].ImputedValue()
	}
	return x
}

// Sample draws a uniform random vector respecting every slot's domain.
func (s *Space) Sample(rng *rand.Rand) []float64 {
	x := make([]float64, len(s.vars))
	for i := range s.vars {
		v := &s.vars[i]
		if v.Kind == catalog.Continuous {
			x[i] = v.Min + rng.Float64()*(v.Max-v.Min)
		} else {
			x[i] = float64(rng.Intn(v.cardinality()))
		}
	}
	return x
}
