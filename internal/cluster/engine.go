// Package cluster groups files into domain summaries with
// density-based clustering over pairwise similarity, reconciled
// against the extractor's candidates. Clustering is independent of
// candidate confidence: it only looks at where files live and how they
// import each other.
package cluster

import (
	"sort"

	"github.com/google/uuid"

	"boundary/internal/analysis"
	"boundary/internal/depgraph"
)

type Engine struct {
	scorer    *Scorer
	locator   *analysis.Locator
	threshold float64
	minSize   int
}

func NewEngine(locator *analysis.Locator, g *depgraph.Graph, similarityThreshold float64, minClusterSize int) *Engine {
	return &Engine{
		scorer:    NewScorer(locator, g),
		locator:   locator,
		threshold: similarityThreshold,
		minSize:   minClusterSize,
	}
}

// Cluster runs density-based expansion over files in input order. A
// file with at least minSize-1 neighbors at or above the threshold
// seeds a cluster, which grows breadth-first through density-reachable
// neighbors. Files that never qualify stay out as noise.
func (e *Engine) Cluster(files []string) []analysis.FileCluster {
	assigned := make(map[string]int) // file -> cluster index
	visited := make(map[string]bool)
	var clusters [][]string

	for _, file := range files {
		if visited[file] {
			continue
		}
		visited[file] = true

		neighbors := e.neighborsOf(file, files)
		if len(neighbors) < e.minSize-1 {
			continue // noise unless a later expansion absorbs it
		}

		idx := len(clusters)
		clusters = append(clusters, []string{file})
		assigned[file] = idx

		queue := append([]string(nil), neighbors...)
		for len(queue) > 0 {
			next := queue[0]
			queue = queue[1:]

			if _, ok := assigned[next]; !ok {
				assigned[next] = idx
				clusters[idx] = append(clusters[idx], next)
			}
			if visited[next] {
				continue
			}
			visited[next] = true

			// Core points extend the reachable frontier.
			nn := e.neighborsOf(next, files)
			if len(nn) >= e.minSize-1 {
				queue = append(queue, nn...)
			}
		}
	}

	out := make([]analysis.FileCluster, 0, len(clusters))
	for _, members := range clusters {
		if len(members) < e.minSize {
			continue
		}
		sort.Strings(members)
		out = append(out, analysis.FileCluster{
			ID:       uuid.NewString(),
			Files:    members,
			Centroid: e.centroidOf(members),
			Density:  e.densityOf(members),
		})
	}
	return out
}

func (e *Engine) neighborsOf(file string, files []string) []string {
	var out []string
	for _, other := range files {
		if other == file {
			continue
		}
		if e.scorer.Similarity(file, other) >= e.threshold {
			out = append(out, other)
		}
	}
	return out
}

// centroidOf picks the member with the most above-threshold
// connections inside the cluster, ties broken by path order.
func (e *Engine) centroidOf(members []string) string {
	best := ""
	bestCount := -1
	for _, m := range members {
		count := 0
		for _, other := range members {
			if m != other && e.scorer.Similarity(m, other) >= e.threshold {
				count++
			}
		}
		if count > bestCount || (count == bestCount && m < best) {
			best = m
			bestCount = count
		}
	}
	return best
}

// densityOf is qualifying pairs over possible pairs.
func (e *Engine) densityOf(members []string) float64 {
	n := len(members)
	if n < 2 {
		return 0
	}
	qualifying := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if e.scorer.Similarity(members[i], members[j]) >= e.threshold {
				qualifying++
			}
		}
	}
	return float64(qualifying) / float64(n*(n-1)/2)
}
