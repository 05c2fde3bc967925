package design

import (
	"fmt"

	"github.com/archlab/turbarch/internal/catalog"
	"github.com/archlab/turbarch/internal/graph"
)

// Connection is one decided port pairing.
type Connection struct {
	From catalog.PortRef
	To   catalog.PortRef
}

// Assignment is a fully-decided set of architecture decisions: the component
// selected per function, the attribute values of selected components, and
// the connection decisions. It is the input to the validity checker and the
// intermediate form between vector decoding and graph construction.
type Assignment struct {
	// Selection maps a function ID to the selected component ID. A missing
	// entry or empty string means no component was selected.
	Selection map[string]string
	// Attributes maps component ID to attribute name to decided value.
	Attributes map[string]map[string]graph.AttrValue
	// Connections holds the decided port pairings.
	Connections []Connection
}

func (a *Assignment) selected(component string) bool {
	comp := component
	for _, sel := range a.Selection {
		if sel == comp {
			return true
		}
	}
	return false
}

// Check verifies the structural feasibility of an assignment against the
// catalog. It is pure and callable independently of the decoder. Checks run
// in order and stop at the first violation: function coverage, port
// cardinality, port compatibility, dangling connection endpoints, and
// acyclicity of the air-flow path.
func Check(cat *catalog.Catalog, asg *Assignment) *Infeasibility {
	// 1. Every required function must be covered by a candidate component.
	for _, f := range cat.Functions {
		sel := asg.Selection[f.ID]
		if sel == "" {
			if f.Required {
				return &Infeasibility{
					Kind:   FunctionUncovered,
					Detail: fmt.Sprintf("required function %q has no selected component", f.ID),
				}
			}
			continue
		}
		if !isCandidate(&f, sel) {
			return &Infeasibility{
				Kind:   FunctionUncovered,
				Detail: fmt.Sprintf("component %q is not a candidate of function %q", sel, f.ID),
			}
		}
	}

	// 2. Connection counts per port must satisfy the declared cardinality.
	counts := make(map[catalog.PortRef]int, 2*len(asg.Connections))
	for _, conn := range asg.Connections {
		counts[conn.From]++
		counts[conn.To]++
	}
	for _, f := range cat.Functions {
		sel := asg.Selection[f.ID]
		if sel == "" {
			continue
		}
		comp, ok := cat.Component(sel)
		if !ok {
			continue
		}
		for _, p := range comp.Ports {
			n := counts[catalog.PortRef{Component: comp.ID, Port: p.Name}]
			switch p.Cardinality {
			case catalog.ExactlyOne:
				if n != 1 {
					return cardinalityViolation(comp.ID, p.Name, p.Cardinality, n)
				}
			case catalog.ZeroOrOne:
				if n > 1 {
					return cardinalityViolation(comp.ID, p.Name, p.Cardinality, n)
				}
			case catalog.Many:
				if p.MaxConnections > 0 && n > p.MaxConnections {
					return cardinalityViolation(comp.ID, p.Name, p.Cardinality, n)
				}
			}
		}
	}

	// 3. Every connection must pair declared, flow-compatible ports allowed
	// by a compatibility rule.
	for _, conn := range asg.Connections {
		from, okFrom := cat.Port(conn.From)
		to, okTo := cat.Port(conn.To)
		if !okFrom || !okTo {
			return &Infeasibility{
				Kind:   IncompatiblePorts,
				Detail: fmt.Sprintf("connection %s -> %s references an undeclared port", conn.From, conn.To),
			}
		}
		if from.Direction != catalog.Out || to.Direction != catalog.In || from.Flow != to.Flow {
			return &Infeasibility{
				Kind:   IncompatiblePorts,
				Detail: fmt.Sprintf("connection %s -> %s mismatches direction or flow type", conn.From, conn.To),
			}
		}
		if !ruleAllows(cat, conn) {
			return &Infeasibility{
				Kind:   IncompatiblePorts,
				Detail: fmt.Sprintf("connection %s -> %s is not allowed by any rule", conn.From, conn.To),
			}
		}
	}

	// 4. Connection endpoints must belong to selected components.
	for _, conn := range asg.Connections {
		for _, end := range []catalog.PortRef{conn.From, conn.To} {
			if !asg.selected(end.Component) {
				return &Infeasibility{
					Kind:   DanglingConnection,
					Detail: fmt.Sprintf("connection %s -> %s references unselected component %q", conn.From, conn.To, end.Component),
				}
			}
		}
	}

	// 5. The air-flow path must be acyclic.
	if cycle := airCycle(cat, asg.Connections); cycle != "" {
		return &Infeasibility{
			Kind:   FlowCycle,
			Detail: fmt.Sprintf("air-flow cycle through %q", cycle),
		}
	}

	return nil
}

func isCandidate(f *catalog.Function, component string) bool {
	for _, id := range f.Candidates {
		if id == component {
			return true
		}
	}
	return false
}

func cardinalityViolation(comp, port string, c catalog.Cardinality, n int) *Infeasibility {
	return &Infeasibility{
		Kind:   PortCardinality,
		Detail: fmt.Sprintf("port %s.%s requires %s, has %d connections", comp, port, c, n),
	}
}

func ruleAllows(cat *catalog.Catalog, conn Connection) bool {
	for _, r := range cat.Rules {
		if r.From != conn.From {
			continue
		}
		for _, to := range r.To {
			if to == conn.To {
				return true
			}
		}
	}
	return false
}

// airCycle runs a depth-first search over the component-level air-flow graph
// and returns a component on a cycle, or "" when acyclic.
func airCycle(cat *catalog.Catalog, conns []Connection) string {
	adj := make(map[string][]string)
	for _, conn := range conns {
		from, ok := cat.Port(conn.From)
		if !ok || from.Flow != catalog.FlowAir {
			continue
		}
		adj[conn.From.Component] = append(adj[conn.From.Component], conn.To.Component)
	}

	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(adj))

	var visit func(string) string
	visit = func(c string) string {
		state[c] = inStack
		for _, next := range adj[c] {
			switch state[next] {
			case inStack:
				return next
			case unvisited:
				if hit := visit(next); hit != "" {
					return hit
				}
			}
		}
		state[c] = done
		return ""
	}

	for c := range adj {
		if state[c] == unvisited {
			if hit := visit(c); hit != "" {
				return hit
			}
		}
	}
	return ""
}
