// Package graph holds the in-memory operator network: operators keyed by id
// plus the derived forward adjacency. A Graph is built once per repeat group,
// validated, and never mutated afterwards; completion bookkeeping belongs to
// the executor.
package graph

import (
	"sort"
	"strings"

	"opnet/internal/config"
)

// Node is one operator vertex with its resolved neighbours.
type Node struct {
	// Op is the operator definition this node wraps.
	Op *config.Operator
	// deps holds the set of nodes this node waits on (predecessors).
	deps map[string]*Node
	// dependents holds the set of nodes waiting on this node (successors).
	dependents map[string]*Node
}

// ID returns the operator id.
func (n *Node) ID() string { return n.Op.ID }

// DepCount is the number of direct dependencies.
func (n *Node) DepCount() int { return len(n.deps) }

// Dependents returns this node's successors in a stable order.
func (n *Node) Dependents() []*Node {
	return sortedNodes(n.dependents)
}

// Deps returns this node's predecessors in a stable order.
func (n *Node) Deps() []*Node {
	return sortedNodes(n.deps)
}

// Graph is the validated operator network.
type Graph struct {
	nodes map[string]*Node
	// order preserves the definition order for deterministic iteration.
	order []string
}

// Build constructs and validates a graph from an operator list. The list is
// expected to be normalized (config.Model.Finalize); Build still re-checks id
// uniqueness so it is safe on hand-built input. It fails with a
// *config.ValidationError on duplicate ids, references to unknown ids, or
// dependency cycles.
func Build(ops []*config.Operator) (*Graph, error) {
	g := &Graph{nodes: make(map[string]*Node, len(ops))}

	for _, op := range ops {
		if _, dup := g.nodes[op.ID]; dup {
			return nil, config.Validationf("duplicate operator id %q", op.ID)
		}
		g.nodes[op.ID] = &Node{
			Op:         op,
			deps:       make(map[string]*Node),
			dependents: make(map[string]*Node),
		}
		g.order = append(g.order, op.ID)
	}

	for _, op := range ops {
		node := g.nodes[op.ID]
		for _, depID := range op.DependsOn {
			if depID == op.ID {
				return nil, config.Validationf("operator %q depends on itself", op.ID)
			}
			dep, ok := g.nodes[depID]
			if !ok {
				return nil, config.Validationf("operator %q depends on unknown id %q", op.ID, depID)
			}
			node.deps[depID] = dep
			dep.dependents[op.ID] = node
		}
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, config.Validationf("dependency cycle: %s", strings.Join(cycle, " -> "))
	}
	return g, nil
}

// Len is the number of operators in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node for an id, or nil if absent.
func (g *Graph) Node(id string) *Node { return g.nodes[id] }

// Nodes returns every node in definition order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Roots returns every node with no dependencies, in definition order.
func (g *Graph) Roots() []*Node {
	var out []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; len(n.deps) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Dependents returns the forward adjacency of an id in a stable order.
// Unknown ids yield nil.
func (g *Graph) Dependents(id string) []*Node {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return n.Dependents()
}

// findCycle runs a three-color depth-first search over the dependency edges
// and returns the first cycle found as a closed id path (first == last), or
// nil when the graph is acyclic.
func (g *Graph) findCycle() []string {
	const (
		unvisited = iota
		inProgress
		done
	)
	color := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(n *Node) []string
	visit = func(n *Node) []string {
		color[n.ID()] = inProgress
		stack = append(stack, n.ID())

		for _, dep := range n.Deps() {
			switch color[dep.ID()] {
			case inProgress:
				// Back edge: slice the current stack into the cycle path.
				for i, id := range stack {
					if id == dep.ID() {
						return append(append([]string{}, stack[i:]...), dep.ID())
					}
				}
			case unvisited:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[n.ID()] = done
		return nil
	}

	for _, id := range g.order {
		if color[id] == unvisited {
			if cycle := visit(g.nodes[id]); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

func sortedNodes(m map[string]*Node) []*Node {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}
