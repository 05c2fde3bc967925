// Package catalog defines the static design knowledge for turbofan
// architecting: the engineering functions an engine must provide, the
// candidate components able to fulfill them, their ports and attribute
// schemas, and the rules restricting how ports may be connected.
//
// A Catalog is built once at startup, validated, and treated as immutable
// afterwards. All cross-references between entries are by identifier, never
// by pointer, so a validated Catalog is safe to share across concurrent
// scoring calls.
package catalog

import (
	"fmt"
)

// FlowType identifies the kind of flow carried through a port.
type FlowType string

const (
	FlowAir   FlowType = "air"
	FlowMech  FlowType = "mech"
	FlowBleed FlowType = "bleed"
)

// PortDirection marks a port as an input or an output.
type PortDirection int

const (
	In PortDirection = iota
	Out
)

func (d PortDirection) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

// Cardinality constrains how many connections a port must carry when its
// component is selected.
type Cardinality int

const (
	// ExactlyOne ports must carry exactly one connection.
	ExactlyOne Cardinality = iota
	// ZeroOrOne ports may be left unconnected.
	ZeroOrOne
	// Many ports accept any number of connections, optionally bounded by
	// Port.MaxConnections.
	Many
)

func (c Cardinality) String() string {
	switch c {
	case ExactlyOne:
		return "exactly-one"
	case ZeroOrOne:
		return "zero-or-one"
	default:
		return "many"
	}
}

// Port is a typed connection point on a component.
type Port struct {
	Name        string
	Direction   PortDirection
	Flow        FlowType
	Cardinality Cardinality
	// MaxConnections bounds a Many port. Zero means unbounded.
	MaxConnections int
}

// DomainKind discriminates attribute and design-variable domains.
type DomainKind int

const (
	// Continuous domains span a closed interval [Min, Max].
	Continuous DomainKind = iota
	// Integer domains enumerate discrete numeric levels.
	Integer
	// Categorical domains enumerate unordered named options.
	Categorical
)

func (k DomainKind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Integer:
		return "integer"
	default:
		return "categorical"
	}
}

// Domain describes the value set of one attribute.
type Domain struct {
	Kind    DomainKind
	Min     float64   // Continuous
	Max     float64   // Continuous
	Levels  []float64 // Integer
	Options []string  // Categorical
}

// Attribute is one named design parameter of a component.
type Attribute struct {
	Name   string
	Domain Domain
}

// Component is a candidate part that can fulfill an engineering function.
type Component struct {
	ID         string
	Fulfills   string // function ID this component is a candidate for
	Ports      []Port
	Attributes []Attribute
}

// Port returns the named port, if declared.
func (c *Component) Port(name string) (*Port, bool) {
	for i := range c.Ports {
		if c.Ports[i].Name == name {
			return &c.Ports[i], true
		}
	}
	return nil, false
}

// Attribute returns the named attribute, if declared.
func (c *Component) Attribute(name string) (*Attribute, bool) {
	for i := range c.Attributes {
		if c.Attributes[i].Name == name {
			return &c.Attributes[i], true
		}
	}
	return nil, false
}

// Function is an engineering capability the architecture must (or may)
// provide, fulfilled by exactly one of its candidate components.
type Function struct {
	ID         string
	Required   bool
	Candidates []string // component IDs, in declaration order
}

// PortRef addresses one port on one component.
type PortRef struct {
	Component string
	Port      string
}

func (r PortRef) String() string {
	return r.Component + "." + r.Port
}

// Rule declares the allowed connection partners of one output port. Partner
// order is declaration order and fixes the option order of the derived
// connection design variable.
type Rule struct {
	From PortRef
	To   []PortRef
}

// Catalog is the complete design-space description: functions, candidate
// components, and connection rules. Entries are stored arena-style in
// declaration order; lookups go through identifier indexes built by
// Validate, or a linear scan before validation.
type Catalog struct {
	Name       string
	Functions  []Function
	Components []Component
	Rules      []Rule

	funcIdx map[string]int
	compIdx map[string]int
}

// SchemaError reports a malformed catalog. It is the only error in this
// module that callers should treat as fatal: it can occur only at startup,
// never during scoring.
type SchemaError struct {
	Entity string // offending function/component/rule identifier
	Detail string
}

func (e *SchemaError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("catalog schema: %s", e.Detail)
	}
	return fmt.Sprintf("catalog schema: %s: %s", e.Entity, e.Detail)
}

func schemaErrorf(entity, format string, args ...interface{}) *SchemaError {
	return &SchemaError{Entity: entity, Detail: fmt.Sprintf(format, args...)}
}

// Validate checks the catalog for structural consistency and builds the
// identifier indexes. It must be called (directly or via Load) before the
// catalog is handed to the design-space encoder.
func (c *Catalog) Validate() error {
	c.funcIdx = make(map[string]int, len(c.Functions))
	c.compIdx = make(map[string]int, len(c.Components))

	for i, f := range c.Functions {
		if f.ID == "" {
			return schemaErrorf("", "function %d has empty ID", i)
		}
		if _, dup := c.funcIdx[f.ID]; dup {
			return schemaErrorf(f.ID, "duplicate function ID")
		}
		c.funcIdx[f.ID] = i
		if len(f.Candidates) == 0 {
			return schemaErrorf(f.ID, "function has no candidate components")
		}
	}

	for i, comp := range c.Components {
		if comp.ID == "" {
			return schemaErrorf("", "component %d has empty ID", i)
		}
		if _, dup := c.compIdx[comp.ID]; dup {
			return schemaErrorf(comp.ID, "duplicate component ID")
		}
		c.compIdx[comp.ID] = i

		if _, ok := c.funcIdx[comp.Fulfills]; !ok {
			return schemaErrorf(comp.ID, "fulfills unknown function %q", comp.Fulfills)
		}

		seenPorts := make(map[string]bool, len(comp.Ports))
		for _, p := range comp.Ports {
			if p.Name == "" {
				return schemaErrorf(comp.ID, "port with empty name")
			}
			if seenPorts[p.Name] {
				return schemaErrorf(comp.ID, "duplicate port %q", p.Name)
			}
			seenPorts[p.Name] = true
			switch p.Flow {
			case FlowAir, FlowMech, FlowBleed:
			default:
				return schemaErrorf(comp.ID, "port %q has unknown flow type %q", p.Name, p.Flow)
			}
			if p.MaxConnections > 0 && p.Cardinality != Many {
				return schemaErrorf(comp.ID, "port %q declares max connections without many cardinality", p.Name)
			}
		}

		seenAttrs := make(map[string]bool, len(comp.Attributes))
		for _, a := range comp.Attributes {
			if a.Name == "" {
				return schemaErrorf(comp.ID, "attribute with empty name")
			}
			if seenAttrs[a.Name] {
				return schemaErrorf(comp.ID, "duplicate attribute %q", a.Name)
			}
			seenAttrs[a.Name] = true
			if err := validateDomain(comp.ID, a.Name, a.Domain); err != nil {
				return err
			}
		}
	}

	// Every candidate must exist and fulfill the referencing function.
	// A component may be a candidate of exactly one function: connection and
	// attribute activation conditions are conjunctions over the selection
	// variable of that single function.
	candidateOf := make(map[string]string, len(c.Components))
	for _, f := range c.Functions {
		for _, id := range f.Candidates {
			ci, ok := c.compIdx[id]
			if !ok {
				return schemaErrorf(f.ID, "candidate %q is not a declared component", id)
			}
			if c.Components[ci].Fulfills != f.ID {
				return schemaErrorf(f.ID, "candidate %q fulfills %q instead", id, c.Components[ci].Fulfills)
			}
			if prev, seen := candidateOf[id]; seen && prev != f.ID {
				return schemaErrorf(id, "component is a candidate of both %q and %q", prev, f.ID)
			}
			candidateOf[id] = f.ID
		}
	}
	for _, comp := range c.Components {
		if _, ok := candidateOf[comp.ID]; !ok {
			return schemaErrorf(comp.ID, "component is not a candidate of any function")
		}
	}

	for i, r := range c.Rules {
		from, ok := c.port(r.From)
		if !ok {
			return schemaErrorf(r.From.String(), "rule %d references undeclared source port", i)
		}
		if from.Direction != Out {
			return schemaErrorf(r.From.String(), "rule %d source is not an output port", i)
		}
		if len(r.To) == 0 {
			return schemaErrorf(r.From.String(), "rule %d has no allowed partners", i)
		}
		for _, to := range r.To {
			dst, ok := c.port(to)
			if !ok {
				return schemaErrorf(to.String(), "rule %d references undeclared target port", i)
			}
			if dst.Direction != In {
				return schemaErrorf(to.String(), "rule %d target is not an input port", i)
			}
			if dst.Flow != from.Flow {
				return schemaErrorf(to.String(), "rule %d connects %s to %s flow", i, from.Flow, dst.Flow)
			}
		}
	}

	return nil
}

func validateDomain(comp, attr string, d Domain) error {
	switch d.Kind {
	case Continuous:
		if !(d.Min < d.Max) {
			return schemaErrorf(comp, "attribute %q has inverted bounds [%v, %v]", attr, d.Min, d.Max)
		}
	case Integer:
		if len(d.Levels) == 0 {
			return schemaErrorf(comp, "attribute %q has no levels", attr)
		}
	case Categorical:
		if len(d.Options) == 0 {
			return schemaErrorf(comp, "attribute %q has no options", attr)
		}
	default:
		return schemaErrorf(comp, "attribute %q has unknown domain kind", attr)
	}
	return nil
}

// Function returns the function with the given ID. Before Validate builds
// the indexes, lookups fall back to a linear scan so hand-built catalogs
// (as used by the validity checker in tests) resolve the same way.
func (c *Catalog) Function(id string) (*Function, bool) {
	if c.funcIdx != nil {
		i, ok := c.funcIdx[id]
		if !ok {
			return nil, false
		}
		return &c.Functions[i], true
	}
	for i := range c.Functions {
		if c.Functions[i].ID == id {
			return &c.Functions[i], true
		}
	}
	return nil, false
}

// Component returns the component with the given ID. Like Function, it
// degrades to a linear scan on an unvalidated catalog.
func (c *Catalog) Component(id string) (*Component, bool) {
	if c.compIdx != nil {
		i, ok := c.compIdx[id]
		if !ok {
			return nil, false
		}
		return &c.Components[i], true
	}
	for i := range c.Components {
		if c.Components[i].ID == id {
			return &c.Components[i], true
		}
	}
	return nil, false
}

// FunctionOf returns the function a component is a candidate of.
func (c *Catalog) FunctionOf(componentID string) (*Function, bool) {
	comp, ok := c.Component(componentID)
	if !ok {
		return nil, false
	}
	return c.Function(comp.Fulfills)
}

func (c *Catalog) port(ref PortRef) (*Port, bool) {
	comp, ok := c.Component(ref.Component)
	if !ok {
		return nil, false
	}
	return comp.Port(ref.Port)
}

// Port resolves a port reference.
func (c *Catalog) Port(ref PortRef) (*Port, bool) {
	return c.port(ref)
}
