package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/vershift/internal/ir"
)

// ReferenceWarning represents a reference cycle among the containers of a
// batch.
//
// Cycles are warnings, not errors, because only some outputs choke on
// them: the YAML schema renderer emits references by name and is fine,
// while the Go renderer embeds member containers by value, which a cycle
// makes unrepresentable.
type ReferenceWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["Node", "Child", "Node"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeReferences performs static cycle analysis on the container
// reference graph of a batch.
//
// A container references another when a member type (or a change's
// previous type) names it. The analysis builds that graph and finds
// strongly connected components; each SCC with more than one member, and
// each self-referential container, is reported as a warning.
//
// A DAG (no cycles) returns an empty warning list. Run ResolveReferences
// first; unresolved type refs contribute no edges.
func AnalyzeReferences(b *ir.Batch) []ReferenceWarning {
	if len(b.Entries) == 0 {
		return []ReferenceWarning{}
	}

	graph, order := buildReferenceGraph(b)

	// Detect strongly connected components (cycles)
	sccs := tarjanSCC(graph, order)

	var warnings []ReferenceWarning
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, referenceSCCToWarning(scc, graph))
		}
	}

	return warnings
}

// referenceGraph maps container name → containers its member types name.
type referenceGraph map[string][]string

// buildReferenceGraph constructs the container reference graph plus a
// deterministic visit order, so repeated runs report cycles identically.
func buildReferenceGraph(b *ir.Batch) (referenceGraph, []string) {
	graph := make(referenceGraph, len(b.Entries))
	order := make([]string, 0, len(b.Entries))

	for _, entry := range b.Entries {
		name := entry.Container.Name
		order = append(order, name)
		if graph[name] == nil {
			graph[name] = []string{}
		}

		add := func(t ir.TypeRef) {
			if t.Container {
				graph[name] = append(graph[name], t.Name)
			}
		}
		for _, item := range entry.Container.Items {
			add(item.Type)
			for _, change := range item.Actions.Changes {
				add(change.FromType)
			}
		}
	}

	return graph, order
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph referenceGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Returns a list of SCCs, where each SCC is a list of container names.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph referenceGraph, order []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		// Set the depth index for v
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		// Consider successors of v
		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				// Successor w has not yet been visited; recurse on it
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				// Successor w is on stack and hence in the current SCC
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// If v is a root node, pop the stack and create an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	// Visit nodes in batch declaration order, not map order
	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// referenceSCCToWarning converts an SCC to a ReferenceWarning.
//
// The path shows the cycle sequence by reconstructing a traversal through
// the SCC. For self-references, the path is [name, name].
func referenceSCCToWarning(scc []string, graph referenceGraph) ReferenceWarning {
	if len(scc) == 1 {
		name := scc[0]
		return ReferenceWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("Self-referential container detected: %s → %s", name, name),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)

	return ReferenceWarning{
		Path:    path,
		Message: fmt.Sprintf("Reference cycle detected: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath builds a cycle path from an SCC.
//
// Strategy: Start at first node in SCC, follow edges to other SCC members,
// continue until we return to start node.
func reconstructCyclePath(scc []string, graph referenceGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	// Build set of SCC members for fast lookup
	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	// Start at first node
	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	// Follow edges within SCC until we return to start
	for {
		visited[current] = true

		// Find next SCC member reachable from current
		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}

		if next == "" {
			// No more unvisited neighbors in SCC
			break
		}

		path = append(path, next)

		if next == start {
			// Completed the cycle
			break
		}

		current = next
	}

	return path
}
