package depgraph

import (
	"path"
	"sort"
	"strings"

	"boundary/internal/analysis"
	"boundary/internal/apperr"
)

// Graph is the first-party dependency graph. Nodes are relative file
// paths (forward slashes); edges only ever point at known nodes. Bare
// package specifiers never make it in.
type Graph struct {
	nodes map[string]bool
	edges []Edge

	outgoing map[string][]int // node -> edge indexes
	incoming map[string][]int
}

type Edge struct {
	Source     string
	Target     string
	Specifiers []string
	IsReexport bool
}

var sourceExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// Build constructs the graph from detector output. Import specifiers
// resolve against the known file set only: a relative specifier tries
// the exact path, then extension-appended variants, then an index file
// inside the specifier-as-directory. Non-relative specifiers get the
// same treatment rooted at the project root; whatever stays unresolved
// is external and produces no node or edge.
func Build(files []analysis.FileAnalysis) *Graph {
	g := &Graph{
		nodes:    make(map[string]bool, len(files)),
		outgoing: make(map[string][]int),
		incoming: make(map[string][]int),
	}

	for _, f := range files {
		g.nodes[f.RelativePath] = true
	}

	for _, f := range files {
		fromDir := path.Dir(f.RelativePath)
		for _, imp := range f.Imports {
			target := g.resolveSpecifier(fromDir, imp.Source)
			if target == "" || target == f.RelativePath {
				continue
			}
			idx := len(g.edges)
			g.edges = append(g.edges, Edge{
				Source:     f.RelativePath,
				Target:     target,
				Specifiers: append([]string(nil), imp.Specifiers...),
				IsReexport: imp.IsReexport,
			})
			g.outgoing[f.RelativePath] = append(g.outgoing[f.RelativePath], idx)
			g.incoming[target] = append(g.incoming[target], idx)
		}
	}

	for _, e := range g.edges {
		apperr.Invariant(g.nodes[e.Target], "edge target %q is not a graph node", e.Target)
	}

	return g
}

func (g *Graph) resolveSpecifier(fromDir, specifier string) string {
	if specifier == "" {
		return ""
	}

	var base string
	if strings.HasPrefix(specifier, ".") {
		base = path.Clean(path.Join(fromDir, specifier))
	} else {
		// Root-relative aliases ("src/auth/api"). Bare package names
		// fall through all three probes and resolve to nothing.
		base = path.Clean(specifier)
	}

	if g.nodes[base] {
		return base
	}
	for _, ext := range sourceExtensions {
		if g.nodes[base+ext] {
			return base + ext
		}
	}
	for _, ext := range sourceExtensions {
		if idx := base + "/index" + ext; g.nodes[idx] {
			return idx
		}
	}
	return ""
}

// Nodes returns all node paths, sorted.
func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (g *Graph) HasNode(p string) bool { return g.nodes[p] }

func (g *Graph) NodeCount() int { return len(g.nodes) }

func (g *Graph) EdgeCount() int { return len(g.edges) }

// Edges returns a copy of all edges.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// ImportsOf returns the direct targets of a node, sorted, deduped.
func (g *Graph) ImportsOf(p string) []string {
	return g.neighborSet(p, g.outgoing, func(e Edge) string { return e.Target })
}

// ImportersOf returns the direct sources pointing at a node.
func (g *Graph) ImportersOf(p string) []string {
	return g.neighborSet(p, g.incoming, func(e Edge) string { return e.Source })
}

func (g *Graph) neighborSet(p string, adj map[string][]int, pick func(Edge) string) []string {
	seen := make(map[string]bool)
	for _, idx := range adj[p] {
		seen[pick(g.edges[idx])] = true
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// EdgesBetween counts edges connecting a and b in either direction.
func (g *Graph) EdgesBetween(a, b string) int {
	count := 0
	for _, idx := range g.outgoing[a] {
		if g.edges[idx].Target == b {
			count++
		}
	}
	for _, idx := range g.outgoing[b] {
		if g.edges[idx].Target == a {
			count++
		}
	}
	return count
}

// HasEdge reports a direct import from source to target.
func (g *Graph) HasEdge(source, target string) bool {
	for _, idx := range g.outgoing[source] {
		if g.edges[idx].Target == target {
			return true
		}
	}
	return false
}
