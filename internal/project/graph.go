package project

import (
	"sort"

	"github.com/awp-dev/awpengine/internal/ids"
)

// Graph is the on-demand dependency graph for a single project's tasks.
// Nodes are task slugs; edges run dep -> dependent, matching the
// direction blockedBy implies.
type Graph struct {
	ProjectSlug string
	Nodes       []string
	edges       map[string][]string // dep -> dependents
	indegree    map[string]int
}

// BuildGraph resolves task ids in blockedBy against known task slugs in the
// project. Unknown deps are dropped silently (a lint warning, not fatal).
func BuildGraph(projectSlug string, tasks []*Task) *Graph {
	g := &Graph{ProjectSlug: projectSlug, edges: map[string][]string{}, indegree: map[string]int{}}
	known := map[string]string{} // task id -> slug
	for _, t := range tasks {
		g.Nodes = append(g.Nodes, t.Slug)
		known[ids.Task(projectSlug, t.Slug)] = t.Slug
		known[t.Slug] = t.Slug
		g.indegree[t.Slug] = 0
	}
	sort.Strings(g.Nodes)

	for _, t := range tasks {
		for _, dep := range t.BlockedBy {
			depSlug, ok := known[dep]
			if !ok {
				continue
			}
			g.edges[depSlug] = append(g.edges[depSlug], t.Slug)
			g.indegree[t.Slug]++
		}
	}
	for dep := range g.edges {
		sort.Strings(g.edges[dep])
	}
	return g
}

// TopologicalSort runs Kahn's algorithm over a copy of in-degrees. A nil
// result means the graph contains a cycle.
func (g *Graph) TopologicalSort() []string {
	indegree := make(map[string]int, len(g.indegree))
	for k, v := range g.indegree {
		indegree[k] = v
	}

	var queue []string
	for _, n := range g.Nodes {
		if indegree[n] == 0 {
			queue = append(queue, n)
		}
	}
	sort.Strings(queue)

	var order []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)

		var next []string
		for _, dependent := range g.edges[n] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				next = append(next, dependent)
			}
		}
		sort.Strings(next)
		queue = append(queue, next...)
		sort.Strings(queue)
	}

	if len(order) != len(g.Nodes) {
		return nil
	}
	return order
}

// DetectCycles runs DFS with a recursion stack; on hitting a back-edge it
// extracts the path slice from the revisit point and closes it, normalizes
// by rotating to the lexicographically smallest id, and dedupes by joined
// form.
func (g *Graph) DetectCycles() [][]string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var stack []string
	var cycles [][]string
	seen := map[string]bool{}

	var visit func(n string)
	visit = func(n string) {
		color[n] = gray
		stack = append(stack, n)
		for _, next := range g.edges[n] {
			switch color[next] {
			case white:
				visit(next)
			case gray:
				idx := indexOf(stack, next)
				if idx >= 0 {
					cycle := append([]string{}, stack[idx:]...)
					cycle = normalizeCycle(cycle)
					cycle = append(cycle, cycle[0])
					key := joinCycle(cycle)
					if !seen[key] {
						seen[key] = true
						cycles = append(cycles, cycle)
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
	}

	for _, n := range g.Nodes {
		if color[n] == white {
			visit(n)
		}
	}

	sort.Slice(cycles, func(i, j int) bool { return joinCycle(cycles[i]) < joinCycle(cycles[j]) })
	return cycles
}

func indexOf(stack []string, target string) int {
	for i, s := range stack {
		if s == target {
			return i
		}
	}
	return -1
}

func normalizeCycle(cycle []string) []string {
	minIdx := 0
	for i, n := range cycle {
		if n < cycle[minIdx] {
			minIdx = i
		}
	}
	out := make([]string, len(cycle))
	for i := range cycle {
		out[i] = cycle[(minIdx+i)%len(cycle)]
	}
	return out
}

func joinCycle(cycle []string) string {
	out := ""
	for i, n := range cycle {
		if i > 0 {
			out += ","
		}
		out += n
	}
	return out
}

// CriticalPath computes the longest path (edge weight 1) over the
// topologically sorted DAG via longest-path DP with predecessor pointers.
// Returns nil when the graph contains a cycle.
func (g *Graph) CriticalPath() []string {
	order := g.TopologicalSort()
	if order == nil {
		return nil
	}

	dist := map[string]int{}
	pred := map[string]string{}
	for _, n := range order {
		dist[n] = 0
	}
	for _, n := range order {
		for _, dependent := range g.edges[n] {
			if dist[n]+1 > dist[dependent] {
				dist[dependent] = dist[n] + 1
				pred[dependent] = n
			}
		}
	}

	best := ""
	for _, n := range order {
		if best == "" || dist[n] > dist[best] {
			best = n
		}
	}
	if best == "" {
		return nil
	}

	var path []string
	for n := best; ; {
		path = append([]string{n}, path...)
		p, ok := pred[n]
		if !ok {
			break
		}
		n = p
	}
	return path
}

// AnalyzeGraphResult bundles every graph query the project engine offers
// into the one report a caller actually wants: is this project's dependency
// graph usable, and if not, why.
type AnalyzeGraphResult struct {
	IsValid      bool
	TopoOrder    []string
	Cycles       [][]string
	CriticalPath []string
	Blocked      map[string][]string
}

// AnalyzeGraph builds the dependency graph for a project's tasks and runs
// every graph query over it in one call. IsValid is false exactly when
// Cycles is non-empty; TopoOrder and CriticalPath are both nil in that
// case, since neither is well-defined over a cyclic graph. Blocked is
// always populated, cycle or not, since it only looks at direct
// dependencies.
func AnalyzeGraph(projectSlug string, tasks []*Task) *AnalyzeGraphResult {
	g := BuildGraph(projectSlug, tasks)
	cycles := g.DetectCycles()
	result := &AnalyzeGraphResult{
		IsValid: len(cycles) == 0,
		Cycles:  cycles,
		Blocked: BlockedTasks(projectSlug, tasks),
	}
	if result.IsValid {
		result.TopoOrder = g.TopologicalSort()
		result.CriticalPath = g.CriticalPath()
	}
	return result
}

// BlockedTasks maps each non-terminal task to its non-terminal unresolved
// dependencies. Tasks with an empty list are omitted entirely.
func BlockedTasks(projectSlug string, tasks []*Task) map[string][]string {
	statusBySlug := map[string]TaskStatus{}
	known := map[string]string{} // task id or slug -> slug
	for _, t := range tasks {
		statusBySlug[t.Slug] = t.Status
		known[t.Slug] = t.Slug
		known[ids.Task(projectSlug, t.Slug)] = t.Slug
	}

	out := map[string][]string{}
	for _, t := range tasks {
		if terminalTaskStatus[t.Status] {
			continue
		}
		var blocking []string
		for _, dep := range t.BlockedBy {
			depSlug, ok := known[dep]
			if !ok {
				continue
			}
			status := statusBySlug[depSlug]
			if terminalTaskStatus[status] {
				continue
			}
			blocking = append(blocking, depSlug)
		}
		if len(blocking) > 0 {
			sort.Strings(blocking)
			out[t.Slug] = blocking
		}
	}
	return out
}
