package design

import (
	"math"

	"github.com/archlab/turbarch/internal/catalog"
)

// NoneOption is the categorical option representing the absence of a
// selection or connection.
const NoneOption = "none"

// VarRole identifies what architectural decision a variable encodes.
type VarRole int

const (
	// SelectionVar variables pick the component fulfilling a function.
	SelectionVar VarRole = iota
	// AttributeVar variables fix one attribute of a selected component.
	AttributeVar
	// ConnectionVar variables pick the partner of one output port.
	ConnectionVar
)

func (r VarRole) String() string {
	switch r {
	case SelectionVar:
		return "selection"
	case AttributeVar:
		return "attribute"
	default:
		return "connection"
	}
}

// Requirement is one conjunct of an activation condition: the referenced
// (earlier) discrete variable must be active and decided to the given option
// index.
type Requirement struct {
	Var    int
	Equals int
}

// Variable is one decision slot of the design-variable specification: a
// domain plus an explicit activation condition over prior decisions. A
// variable with no requirements is always active.
type Variable struct {
	Name string
	Kind catalog.DomainKind

	// Continuous domain.
	Min, Max float64
	// Integer domain.
	Levels []float64
	// Categorical domain.
	Options []string

	Role VarRole
	// Back-references into the catalog, filled per role.
	Function  string // SelectionVar
	Component string // AttributeVar, ConnectionVar (source component)
	Attr      string // AttributeVar
	Rule      int    // ConnectionVar: index into Catalog.Rules

	Requires []Requirement
}

// Bounds returns the raw value range the optimizer must respect: the
// continuous interval, or [0, n-1] over option/level indices.
func (v *Variable) Bounds() (lo, hi float64) {
	if v.Kind == catalog.Continuous {
		return v.Min, v.Max
	}
	return 0, float64(v.cardinality() - 1)
}

// Discrete reports whether the raw value is an index rather than a physical
// quantity.
func (v *Variable) Discrete() bool {
	return v.Kind != catalog.Continuous
}

func (v *Variable) cardinality() int {
	if v.Kind == catalog.Integer {
		return len(v.Levels)
	}
	return len(v.Options)
}

// ImputedValue returns the don't-care placeholder used for inactive slots:
// the interval midpoint for continuous variables and index zero for discrete
// ones.
func (v *Variable) ImputedValue() float64 {
	if v.Kind == catalog.Continuous {
		return (v.Min + v.Max) / 2
	}
	return 0
}

// active evaluates the activation condition against the already-decided
// prefix of the vector.
func (v *Variable) active(decided []int, activeMask []bool) bool {
	for _, r := range v.Requires {
		if !activeMask[r.Var] || decided[r.Var] != r.Equals {
			return false
		}
	}
	return true
}

// coerce maps a raw in-domain value onto the variable's domain: clamping for
// continuous variables, rounding plus clamping to a valid index for discrete
// ones.
func (v *Variable) coerce(x float64) (value float64, index int) {
	if v.Kind == catalog.Continuous {
		return math.Min(math.Max(x, v.Min), v.Max), -1
	}
	idx := int(math.Round(x))
	if idx < 0 {
		idx = 0
	}
	if n := v.cardinality(); idx >= n {
		idx = n - 1
	}
	return float64(idx), idx
}
