package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/fetchview/internal/ir"
)

// CycleWarning describes a cycle in the entity relation graph.
//
// Cycles are warnings, not errors: self-references, mutual references and
// longer loops are legal schemas. The analyzer closes them with extended
// views bounded by max_extra_depth.
type CycleWarning struct {
	Path    []string `json:"path"`    // entity cycle: ["Person", "CompanyPerson", "Person"]
	Fields  []string `json:"fields"`  // relation taken at each hop: ["companies", "person"]
	Message string   `json:"message"` // human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeCycles reports every cycle class in the relation graph.
//
// The algorithm:
//  1. Build an entity -> target entity graph from relation edges
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1, and each self-loop, as one warning
//
// Output order follows entity declaration order, so it is stable across runs.
// An acyclic graph returns an empty list.
func AnalyzeCycles(g *ir.Graph) []CycleWarning {
	dg := buildRelationGraph(g)
	if len(dg.order) == 0 {
		return []CycleWarning{}
	}

	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(dg) {
		if len(scc) > 1 || (len(scc) == 1 && dg.hasSelfLoop(scc[0])) {
			warnings = append(warnings, cycleSCCToWarning(scc, dg))
		}
	}
	return warnings
}

type relationHop struct {
	field  string
	target string
}

// relationGraph is the entity graph in declaration order.
type relationGraph struct {
	order []string
	rank  map[string]int
	edges map[string][]relationHop
}

func buildRelationGraph(g *ir.Graph) *relationGraph {
	dg := &relationGraph{rank: make(map[string]int), edges: make(map[string][]relationHop)}
	for _, e := range g.Entities() {
		if _, dup := dg.rank[e.Name]; dup {
			continue
		}
		dg.rank[e.Name] = len(dg.order)
		dg.order = append(dg.order, e.Name)
	}
	for _, name := range dg.order {
		e, _ := g.Entity(name)
		for _, r := range e.Relations {
			target, ok := g.Entity(r.TargetEntityName)
			if !ok {
				continue
			}
			dg.edges[name] = append(dg.edges[name], relationHop{field: r.FieldName, target: target.Name})
		}
	}
	return dg
}

func (dg *relationGraph) hasSelfLoop(node string) bool {
	for _, h := range dg.edges[node] {
		if h.target == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node SCCs without self-loops are not cycles.
func tarjanSCC(dg *relationGraph) [][]string {
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
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, h := range dg.edges[v] {
			w := h.target
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

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

	for _, node := range dg.order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	// Report in declaration order of each component's first entity.
	for i := range sccs {
		first := 0
		for j, n := range sccs[i] {
			if dg.rank[n] < dg.rank[sccs[i][first]] {
				first = j
			}
		}
		sccs[i][0], sccs[i][first] = sccs[i][first], sccs[i][0]
	}
	slices.SortFunc(sccs, func(a, b []string) int { return dg.rank[a[0]] - dg.rank[b[0]] })
	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning.
func cycleSCCToWarning(scc []string, dg *relationGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		var field string
		for _, h := range dg.edges[name] {
			if h.target == name {
				field = h.field
				break
			}
		}
		return CycleWarning{
			Path:    []string{name, name},
			Fields:  []string{field},
			Message: fmt.Sprintf("Self-referencing entity: %s.%s → %s", name, field, name),
			Level:   "warning",
		}
	}

	path, fields := reconstructCyclePath(scc, dg)
	return CycleWarning{
		Path:    path,
		Fields:  fields,
		Message: fmt.Sprintf("Relation cycle: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath finds the shortest loop from the first SCC member
// back to itself, staying inside the SCC. Breadth-first search follows
// relation declaration order, so the result is deterministic.
func reconstructCyclePath(scc []string, dg *relationGraph) ([]string, []string) {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}

	type parentHop struct{ node, field string }
	start := scc[0]
	parent := make(map[string]parentHop)
	seen := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, h := range dg.edges[u] {
			if !members[h.target] || (u == start && h.target == start) {
				continue
			}
			if h.target == start {
				var nodes, fields []string
				for n := u; n != start; n = parent[n].node {
					nodes = append(nodes, n)
					fields = append(fields, parent[n].field)
				}
				slices.Reverse(nodes)
				slices.Reverse(fields)
				path := append(append([]string{start}, nodes...), start)
				return path, append(fields, h.field)
			}
			if !seen[h.target] {
				seen[h.target] = true
				parent[h.target] = parentHop{node: u, field: h.field}
				queue = append(queue, h.target)
			}
		}
	}
	return []string{start}, nil
}
