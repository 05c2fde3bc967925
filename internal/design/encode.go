package design

import (
	"fmt"

	"github.com/archlab/turbarch/internal/catalog"
	"github.com/archlab/turbarch/internal/graph"
)

// Encode maps an architecture instance back onto a design vector. Slots for
// decisions not present in the instance (attributes and connections of
// unselected components) hold their imputed placeholders, so
// Decode(Encode(a)) reproduces a structurally equal instance.
//
// An architecture that does not fit this space's catalog (unknown component,
// out-of-catalog attribute value, connection outside the rules) yields an
// error.
func (s *Space) Encode(arch *graph.Architecture) ([]float64, error) {
	if arch == nil {
		return nil, fmt.Errorf("encode: nil architecture")
	}

	x := s.Imputed()
	for i := range s.vars {
		v := &s.vars[i]
		switch v.Role {
		case SelectionVar:
			node, ok := arch.NodeByFunction(v.Function)
			if !ok {
				idx, err := optionIndex(v, NoneOption)
				if err != nil {
					return nil, fmt.Errorf("encode: required function %q unfulfilled", v.Function)
				}
				x[i] = float64(idx)
				continue
			}
			idx, err := optionIndex(v, node.Component)
			if err != nil {
				return nil, fmt.Errorf("encode: component %q is not a candidate of %q", node.Component, v.Function)
			}
			x[i] = float64(idx)

		case AttributeVar:
			node, ok := arch.NodeByComponent(v.Component)
			if !ok {
				continue
			}
			val, ok := node.Attributes[v.Attr]
			if !ok {
				return nil, fmt.Errorf("encode: component %q missing attribute %q", v.Component, v.Attr)
			}
			raw, err := encodeAttr(v, val)
			if err != nil {
				return nil, err
			}
			x[i] = raw

		case ConnectionVar:
			if !arch.Selected(v.Component) {
				continue
			}
			rule := s.cat.Rules[v.Rule]
			target, found := connectionTarget(arch, rule.From)
			if !found {
				idx, err := optionIndex(v, NoneOption)
				if err != nil {
					return nil, fmt.Errorf("encode: port %s requires a connection", rule.From)
				}
				x[i] = float64(idx)
				continue
			}
			idx, err := optionIndex(v, target.String())
			if err != nil {
				return nil, fmt.Errorf("encode: connection %s -> %s outside rule partners", rule.From, target)
			}
			x[i] = float64(idx)
		}
	}
	return x, nil
}

func optionIndex(v *Variable, option string) (int, error) {
	for i, opt := range v.Options {
		if opt == option {
			return i, nil
		}
	}
	return 0, fmt.Errorf("option %q not in domain of %s", option, v.Name)
}

func encodeAttr(v *Variable, val graph.AttrValue) (float64, error) {
	switch v.Kind {
	case catalog.Continuous:
		if val.Number < v.Min || val.Number > v.Max {
			return 0, fmt.Errorf("encode: attribute %s value %v outside [%v, %v]", v.Name, val.Number, v.Min, v.Max)
		}
		return val.Number, nil
	case catalog.Integer:
		for i, lvl := range v.Levels {
			if lvl == val.Number {
				return float64(i), nil
			}
		}
		return 0, fmt.Errorf("encode: attribute %s value %v is not a declared level", v.Name, val.Number)
	default:
		idx, err := optionIndex(v, val.Option)
		if err != nil {
			return 0, fmt.Errorf("encode: attribute %s: %v", v.Name, err)
		}
		return float64(idx), nil
	}
}

func connectionTarget(arch *graph.Architecture, from catalog.PortRef) (catalog.PortRef, bool) {
	for _, e := range arch.Edges() {
		if e.From == from {
			return e.To, true
		}
	}
	return catalog.PortRef{}, false
}
