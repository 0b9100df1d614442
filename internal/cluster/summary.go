package cluster

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"boundary/internal/analysis"
)

// Reconcile maps clusters onto candidates, merges clusters that share
// a dominant feature directory, and turns each final cluster into one
// DomainSummary. Summaries become the authoritative domain records.
func (e *Engine) Reconcile(clusters []analysis.FileCluster, cands []analysis.DomainCandidate, files []analysis.FileAnalysis) []analysis.DomainSummary {
	clusters = e.attachCandidates(clusters, cands)
	clusters = e.mergeByFeatureDir(clusters)

	byID := make(map[string]analysis.DomainCandidate, len(cands))
	for _, c := range cands {
		byID[c.ID] = c
	}
	patterns := patternsByFile(files)

	out := make([]analysis.DomainSummary, 0, len(clusters))
	for _, cl := range clusters {
		out = append(out, e.summarize(cl, byID, patterns))
	}
	return out
}

// attachCandidates records, per cluster, every candidate whose file
// set intersects the cluster's, ordered by overlap size.
func (e *Engine) attachCandidates(clusters []analysis.FileCluster, cands []analysis.DomainCandidate) []analysis.FileCluster {
	for i := range clusters {
		inCluster := make(map[string]bool, len(clusters[i].Files))
		for _, f := range clusters[i].Files {
			inCluster[f] = true
		}

		type overlap struct {
			id    string
			count int
		}
		var overlaps []overlap
		for _, c := range cands {
			n := 0
			for _, f := range c.SourceFiles {
				if inCluster[f] {
					n++
				}
			}
			if n > 0 {
				overlaps = append(overlaps, overlap{c.ID, n})
			}
		}
		sort.SliceStable(overlaps, func(a, b int) bool { return overlaps[a].count > overlaps[b].count })

		clusters[i].DomainCandidates = clusters[i].DomainCandidates[:0]
		for _, o := range overlaps {
			clusters[i].DomainCandidates = append(clusters[i].DomainCandidates, o.id)
		}
	}
	return clusters
}

// mergeByFeatureDir collapses clusters whose file-count majority lands
// in the same feature directory.
func (e *Engine) mergeByFeatureDir(clusters []analysis.FileCluster) []analysis.FileCluster {
	byDominant := make(map[string][]int)
	var order []string
	for i, cl := range clusters {
		dom := e.dominantFeatureDir(cl.Files)
		key := dom
		if key == "" {
			key = fmt.Sprintf("\x00solo-%d", i) // no dominant dir: never merged
		}
		if _, ok := byDominant[key]; !ok {
			order = append(order, key)
		}
		byDominant[key] = append(byDominant[key], i)
	}

	var out []analysis.FileCluster
	for _, key := range order {
		idxs := byDominant[key]
		if len(idxs) == 1 {
			out = append(out, clusters[idxs[0]])
			continue
		}

		fileSet := make(map[string]bool)
		candSeen := make(map[string]bool)
		var candIDs []string
		for _, i := range idxs {
			for _, f := range clusters[i].Files {
				fileSet[f] = true
			}
			for _, id := range clusters[i].DomainCandidates {
				if !candSeen[id] {
					candSeen[id] = true
					candIDs = append(candIDs, id)
				}
			}
		}
		members := make([]string, 0, len(fileSet))
		for f := range fileSet {
			members = append(members, f)
		}
		sort.Strings(members)

		out = append(out, analysis.FileCluster{
			ID:               uuid.NewString(),
			Files:            members,
			Centroid:         e.centroidOf(members),
			Density:          e.densityOf(members),
			DomainCandidates: candIDs,
		})
	}
	return out
}

func (e *Engine) dominantFeatureDir(members []string) string {
	counts := make(map[string]int)
	for _, f := range members {
		if dir := e.locator.FeatureDirOf(f); dir != "" {
			counts[dir]++
		}
	}
	best, bestCount := "", 0
	for dir, n := range counts {
		if n > bestCount || (n == bestCount && dir < best) {
			best, bestCount = dir, n
		}
	}
	if bestCount*2 <= len(members) {
		return "" // no majority
	}
	return best
}

func (e *Engine) summarize(cl analysis.FileCluster, byID map[string]analysis.DomainCandidate, patterns map[string][]analysis.DetectedPattern) analysis.DomainSummary {
	var best *analysis.DomainCandidate
	for _, id := range cl.DomainCandidates {
		c, ok := byID[id]
		if !ok {
			continue
		}
		if best == nil || c.Confidence > best.Confidence {
			cc := c
			best = &cc
		}
	}

	s := analysis.DomainSummary{
		ID:          uuid.NewString(),
		SourceFiles: cl.Files,
	}

	if best != nil {
		s.Name = best.Name
		s.Confidence = best.Confidence
		s.SuggestedBy = best.SuggestedBy
		fileSet := make(map[string]bool, len(cl.Files))
		for _, f := range cl.Files {
			fileSet[f] = true
		}
		for _, f := range best.SourceFiles {
			if !fileSet[f] {
				fileSet[f] = true
				s.SourceFiles = append(s.SourceFiles, f)
			}
		}
		sort.Strings(s.SourceFiles)
		s.Description = fmt.Sprintf("Domain %q proposed by the %s heuristic over %d files", s.Name, best.SuggestedBy, len(s.SourceFiles))
	} else {
		s.Name = analysis.HyphenName(stem(cl.Centroid))
		s.Confidence = cl.Density * 0.7
		s.SuggestedBy = analysis.SourceFileStructure
		s.NeedsReview = true
		s.ReviewNotes = append(s.ReviewNotes, "no extraction heuristic matched this cluster; name derived from centroid file")
		s.Description = fmt.Sprintf("Unnamed cluster of %d files around %s", len(cl.Files), cl.Centroid)
	}

	s.Entities, s.Actions = mineSummaryShape(s.SourceFiles, patterns)
	return s
}

// mineSummaryShape lifts coarse entity and action names out of the
// cluster's patterns. The synthesizer does the real mining later; this
// shape only feeds relationship and boundary analysis.
func mineSummaryShape(files []string, patterns map[string][]analysis.DetectedPattern) (entities, actions []string) {
	entSeen := make(map[string]bool)
	actSeen := make(map[string]bool)
	for _, f := range files {
		for _, p := range patterns[f] {
			switch p.Type {
			case analysis.PatternContext:
				name := p.Metadata.ContextName
				if name == "" {
					name = p.Name
				}
				name = strings.TrimSuffix(strings.TrimSuffix(name, "Provider"), "Context")
				if name != "" && !entSeen[name] {
					entSeen[name] = true
					entities = append(entities, name)
				}
			case analysis.PatternReducer:
				name := strings.TrimSuffix(p.Name, "Reducer") + "State"
				if !entSeen[name] {
					entSeen[name] = true
					entities = append(entities, name)
				}
				for _, a := range p.Metadata.Actions {
					if !actSeen[a] {
						actSeen[a] = true
						actions = append(actions, a)
					}
				}
			default:
				if p.Metadata.IsEntity && !entSeen[p.Name] {
					entSeen[p.Name] = true
					entities = append(entities, p.Name)
				}
			}
		}
	}
	sort.Strings(entities)
	sort.Strings(actions)
	return entities, actions
}

func patternsByFile(files []analysis.FileAnalysis) map[string][]analysis.DetectedPattern {
	out := make(map[string][]analysis.DetectedPattern, len(files))
	for _, f := range files {
		out[f.RelativePath] = f.Patterns
	}
	return out
}
