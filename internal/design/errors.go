package design

import "fmt"

// EncodingError reports a design vector that is malformed relative to the
// variable specification: wrong length or a non-finite slot value. It
// indicates a caller bug and is returned as an error, never silently
// corrected.
type EncodingError struct {
	Slot   int // -1 when the whole vector is malformed
	Detail string
}

func (e *EncodingError) Error() string {
	if e.Slot < 0 {
		return fmt.Sprintf("design vector: %s", e.Detail)
	}
	return fmt.Sprintf("design vector slot %d: %s", e.Slot, e.Detail)
}

// InfeasibilityKind classifies structural validity violations.
type InfeasibilityKind int

const (
	// FunctionUncovered marks a required function with no selected component.
	FunctionUncovered InfeasibilityKind = iota
	// PortCardinality marks a port whose connection count violates its
	// cardinality rule.
	PortCardinality
	// IncompatiblePorts marks a connection between ports with mismatched
	// flow types or outside the declared compatibility rules.
	IncompatiblePorts
	// DanglingConnection marks a connection referencing a component that is
	// not selected.
	DanglingConnection
	// FlowCycle marks a directed cycle in the air-flow path.
	FlowCycle
)

func (k InfeasibilityKind) String() string {
	switch k {
	case FunctionUncovered:
		return "function uncovered"
	case PortCardinality:
		return "port cardinality violated"
	case IncompatiblePorts:
		return "incompatible ports"
	case DanglingConnection:
		return "dangling connection"
	case FlowCycle:
		return "flow cycle"
	default:
		return "unknown"
	}
}

// Infeasibility is a structurally invalid decode outcome. It is an expected,
// frequent result of optimizer sampling and is reported as a value, not an
// error.
type Infeasibility struct {
	Kind   InfeasibilityKind
	Detail string
}

func (i *Infeasibility) String() string {
	if i.Detail == "" {
		return i.Kind.String()
	}
	return i.Kind.String() + ": " + i.Detail
}
