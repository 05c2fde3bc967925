// Package graph models one concrete candidate architecture as a typed graph:
// nodes are selected components tagged with the function they fulfill, edges
// are connections between component ports. Instances are built per scoring
// call and never shared between concurrent evaluations.
package graph

import (
	"fmt"
	"sort"

	"github.com/archlab/turbarch/internal/catalog"
)

// AttrValue is one decided attribute value on a node. Continuous and integer
// attributes carry Number; categorical attributes carry Option.
type AttrValue struct {
	Kind   catalog.DomainKind
	Number float64
	Option string
}

func (v AttrValue) String() string {
	if v.Kind == catalog.Categorical {
		return v.Option
	}
	return fmt.Sprintf("%g", v.Number)
}

// Node is one selected component fulfilling one function.
type Node struct {
	Function   string
	Component  string
	Attributes map[string]AttrValue
}

// Edge is one directed connection between two ports. Flow records the flow
// type of the connected ports.
type Edge struct {
	From catalog.PortRef
	To   catalog.PortRef
	Flow catalog.FlowType
}

// Architecture is one complete architecture instance. Node and edge order is
// insertion order, which the decoder keeps aligned with catalog declaration
// order so that structurally equal instances compare equal slot by slot.
type Architecture struct {
	nodes       []Node
	edges       []Edge
	byFunction  map[string]int
	byComponent map[string]int
}

// New returns an empty architecture instance.
func New() *Architecture {
	return &Architecture{
		byFunction:  make(map[string]int),
		byComponent: make(map[string]int),
	}
}

// AddNode records the selection of a component for a function.
func (a *Architecture) AddNode(function, component string, attrs map[string]AttrValue) error {
	if _, dup := a.byFunction[function]; dup {
		return fmt.Errorf("function %q already fulfilled", function)
	}
	if _, dup := a.byComponent[component]; dup {
		return fmt.Errorf("component %q already selected", component)
	}
	a.byFunction[function] = len(a.nodes)
	a.byComponent[component] = len(a.nodes)
	a.nodes = append(a.nodes, Node{Function: function, Component: component, Attributes: attrs})
	return nil
}

// Connect records a connection between two ports.
func (a *Architecture) Connect(from, to catalog.PortRef, flow catalog.FlowType) {
	a.edges = append(a.edges, Edge{From: from, To: to, Flow: flow})
}

// Nodes returns the nodes in insertion order.
func (a *Architecture) Nodes() []Node { return a.nodes }

// Edges returns the edges in insertion order.
func (a *Architecture) Edges() []Edge { return a.edges }

// NodeByFunction returns the node fulfilling the given function.
func (a *Architecture) NodeByFunction(function string) (*Node, bool) {
	i, ok := a.byFunction[function]
	if !ok {
		return nil, false
	}
	return &a.nodes[i], true
}

// NodeByComponent returns the node for the given selected component.
func (a *Architecture) NodeByComponent(component string) (*Node, bool) {
	i, ok := a.byComponent[component]
	if !ok {
		return nil, false
	}
	return &a.nodes[i], true
}

// Selected reports whether the component is part of this architecture.
func (a *Architecture) Selected(component string) bool {
	_, ok := a.byComponent[component]
	return ok
}

// ConnectionsAt returns the number of edges touching the given port, counting
// both incoming and outgoing ends.
func (a *Architecture) ConnectionsAt(ref catalog.PortRef) int {
	n := 0
	for _, e := range a.edges {
		if e.From == ref || e.To == ref {
			n++
		}
	}
	return n
}

// Outgoing returns the edges originating at the given component.
func (a *Architecture) Outgoing(component string) []Edge {
	var out []Edge
	for _, e := range a.edges {
		if e.From.Component == component {
			out = append(out, e)
		}
	}
	return out
}

// Equal reports structural equality: same component selection per function,
// same attribute values, and the same connection set regardless of edge
// insertion order.
func (a *Architecture) Equal(b *Architecture) bool {
	if b == nil || len(a.nodes) != len(b.nodes) || len(a.edges) != len(b.edges) {
		return false
	}
	for _, n := range a.nodes {
		m, ok := b.NodeByFunction(n.Function)
		if !ok || m.Component != n.Component || len(m.Attributes) != len(n.Attributes) {
			return false
		}
		for name, v := range n.Attributes {
			w, ok := m.Attributes[name]
			if !ok || w != v {
				return false
			}
		}
	}
	return edgeSet(a.edges) == edgeSet(b.edges)
}

func edgeSet(edges []Edge) string {
	keys := make([]string, len(edges))
	for i, e := range edges {
		keys[i] = e.From.String() + ">" + e.To.String()
	}
	sort.Strings(keys)
	s := ""
	for _, k := range keys {
		s += k + ";"
	}
	return s
}

// HasCycle reports whether the edges of the given flow type form a directed
// cycle at component granularity.
func (a *Architecture) HasCycle(flow catalog.FlowType) bool {
	adj := make(map[string][]string)
	for _, e := range a.edges {
		if e.Flow == flow {
			adj[e.From.Component] = append(adj[e.From.Component], e.To.Component)
		}
	}

	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(adj))

	var visit func(string) bool
	visit = func(c string) bool {
		state[c] = inStack
		for _, next := range adj[c] {
			switch state[next] {
			case inStack:
				return true
			case unvisited:
				if visit(next) {
					return true
				}
			}
		}
		state[c] = done
		return false
	}

	for c := range adj {
		if state[c] == unvisited && visit(c) {
			return true
		}
	}
	return false
}
