package relations

import "boundary/internal/analysis"

// DetectCyclicDependencies walks a dependency-only adjacency list with
// DFS and an explicit recursion stack, returning every distinct cycle
// as an ordered list of domain ids.
func DetectCyclicDependencies(domains []analysis.DomainSummary, rels []analysis.DomainRelationship) [][]string {
	adjacency := make(map[string][]string, len(domains))
	for _, d := range domains {
		adjacency[d.ID] = nil
	}
	for _, r := range rels {
		if r.Type != analysis.RelDependency {
			continue
		}
		adjacency[r.From] = append(adjacency[r.From], r.To)
	}

	var cycles [][]string
	visited := make(map[string]bool, len(domains))
	onStack := make(map[string]bool, len(domains))

	var walk func(curr string, path []string)
	walk = func(curr string, path []string) {
		visited[curr] = true
		onStack[curr] = true
		path = append(path, curr)

		for _, next := range adjacency[curr] {
			if onStack[next] {
				start := -1
				for i, id := range path {
					if id == next {
						start = i
						break
					}
				}
				if start != -1 {
					cycle := make([]string, len(path)-start)
					copy(cycle, path[start:])
					cycles = append(cycles, cycle)
				}
			} else if !visited[next] {
				walk(next, path)
			}
		}

		onStack[curr] = false
	}

	for _, d := range domains {
		if !visited[d.ID] {
			walk(d.ID, []string{})
		}
	}
	return cycles
}
