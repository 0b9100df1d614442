package depgraph

import "sort"

// FindCycles returns every elementary import cycle as an ordered path
// of node ids, via DFS with an explicit recursion stack.
func (g *Graph) FindCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	for _, node := range g.Nodes() {
		if !visited[node] {
			g.cycleWalk(node, visited, onStack, []string{}, &cycles)
		}
	}
	return cycles
}

func (g *Graph) cycleWalk(curr string, visited, onStack map[string]bool, path []string, cycles *[][]string) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, next := range g.ImportsOf(curr) {
		if onStack[next] {
			start := -1
			for i, p := range path {
				if p == next {
					start = i
					break
				}
			}
			if start != -1 {
				cycle := make([]string, len(path)-start)
				copy(cycle, path[start:])
				*cycles = append(*cycles, cycle)
			}
		} else if !visited[next] {
			g.cycleWalk(next, visited, onStack, path, cycles)
		}
	}

	onStack[curr] = false
}

// FindConnectedComponents groups nodes by undirected reachability.
// Components come back sorted internally and by their first member.
func (g *Graph) FindConnectedComponents() [][]string {
	seen := make(map[string]bool)
	var components [][]string

	for _, start := range g.Nodes() {
		if seen[start] {
			continue
		}
		var component []string
		queue := []string{start}
		seen[start] = true
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			component = append(component, node)
			for _, next := range g.ImportsOf(node) {
				if !seen[next] {
					seen[next] = true
					queue = append(queue, next)
				}
			}
			for _, next := range g.ImportersOf(node) {
				if !seen[next] {
					seen[next] = true
					queue = append(queue, next)
				}
			}
		}
		sort.Strings(component)
		components = append(components, component)
	}
	return components
}

// AllDependencies is the transitive closure of ImportsOf.
func (g *Graph) AllDependencies(p string) []string {
	return g.closure(p, g.ImportsOf)
}

// AllDependents is the transitive closure of ImportersOf.
func (g *Graph) AllDependents(p string) []string {
	return g.closure(p, g.ImportersOf)
}

func (g *Graph) closure(start string, step func(string) []string) []string {
	seen := map[string]bool{start: true}
	queue := []string{start}
	var out []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range step(node) {
			if !seen[next] {
				seen[next] = true
				out = append(out, next)
				queue = append(queue, next)
			}
		}
	}
	sort.Strings(out)
	return out
}

// RelationshipStrength scores how tightly two files couple: direct
// edges dominate, shared neighbors contribute a little. Unrelated
// files score exactly 0.
func (g *Graph) RelationshipStrength(a, b string) float64 {
	if a == b || !g.nodes[a] || !g.nodes[b] {
		return 0
	}

	strength := 0.5 * float64(g.EdgesBetween(a, b))

	shared := 0
	bNeighbors := make(map[string]bool)
	for _, n := range g.ImportsOf(b) {
		bNeighbors[n] = true
	}
	for _, n := range g.ImportsOf(a) {
		if bNeighbors[n] {
			shared++
		}
	}
	strength += 0.1 * float64(shared)

	if strength > 1 {
		return 1
	}
	return strength
}
