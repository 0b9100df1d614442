// Package relations derives pairwise domain relationships, runs
// domain-level cycle detection, and raises ownership, naming and
// boundary conflicts for human review.
package relations

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"

	"boundary/internal/analysis"
	"boundary/internal/depgraph"
)

const (
	minStrength      = 0.1
	strongCoupling   = 0.7
	importEdgeWeight = 0.1
	importEdgeCap    = 0.5
	sharedStateW     = 0.15
	sharedStateCap   = 0.3
	sharedDirWeight  = 0.1
	sharedDirCap     = 0.2
)

type Analyzer struct {
	graph *depgraph.Graph
}

func NewAnalyzer(g *depgraph.Graph) *Analyzer {
	return &Analyzer{graph: g}
}

// Analyze produces at most one relationship per unordered domain pair,
// materialized only when strength reaches 0.1. Direction favors the
// domain importing more.
func (a *Analyzer) Analyze(domains []analysis.DomainSummary) []analysis.DomainRelationship {
	var out []analysis.DomainRelationship
	for i := 0; i < len(domains); i++ {
		for j := i + 1; j < len(domains); j++ {
			if rel, ok := a.relate(&domains[i], &domains[j]); ok {
				out = append(out, rel)
			}
		}
	}
	return out
}

func (a *Analyzer) relate(d1, d2 *analysis.DomainSummary) (analysis.DomainRelationship, bool) {
	edges12 := a.crossEdges(d1, d2)
	edges21 := a.crossEdges(d2, d1)
	edgeCount := edges12 + edges21
	shared := sharedEntities(d1, d2)
	dirs := sharedParentDirs(d1, d2)

	strength := capped(float64(edgeCount)*importEdgeWeight, importEdgeCap) +
		capped(float64(len(shared))*sharedStateW, sharedStateCap) +
		capped(float64(dirs)*sharedDirWeight, sharedDirCap)
	if strength > 1 {
		strength = 1
	}
	if strength < minStrength {
		return analysis.DomainRelationship{}, false
	}

	var relType analysis.RelationshipType
	var evidence []string
	switch {
	case len(shared) > 0:
		relType = analysis.RelSharedState
		evidence = append(evidence, fmt.Sprintf("shared state entities: %s", strings.Join(shared, ", ")))
	case edgeCount > 0 && (hasEventAction(d1) || hasEventAction(d2)):
		relType = analysis.RelEventFlow
		evidence = append(evidence, "event-typed actions flow across an import boundary")
	case edgeCount > 0:
		relType = analysis.RelDependency
	default:
		// Proximity alone (shared parent dirs) is not a relationship.
		return analysis.DomainRelationship{}, false
	}
	if edgeCount > 0 {
		evidence = append(evidence, fmt.Sprintf("%d import edges between the domains", edgeCount))
	}
	if dirs > 0 {
		evidence = append(evidence, fmt.Sprintf("%d shared parent directories", dirs))
	}

	from, to := d1, d2
	if edges21 > edges12 {
		from, to = d2, d1
	}

	return analysis.DomainRelationship{
		ID:          uuid.NewString(),
		Type:        relType,
		From:        from.ID,
		To:          to.ID,
		Strength:    strength,
		Evidence:    evidence,
		Description: fmt.Sprintf("%s %s %s (strength %.2f)", from.Name, relType, to.Name, strength),
	}, true
}

// crossEdges counts import edges from files of "from" into files of "to".
func (a *Analyzer) crossEdges(from, to *analysis.DomainSummary) int {
	toSet := make(map[string]bool, len(to.SourceFiles))
	for _, f := range to.SourceFiles {
		toSet[f] = true
	}
	count := 0
	for _, f := range from.SourceFiles {
		for _, target := range a.graph.ImportsOf(f) {
			if toSet[target] {
				count++
			}
		}
	}
	return count
}

func sharedEntities(d1, d2 *analysis.DomainSummary) []string {
	set := make(map[string]bool, len(d1.Entities))
	for _, e := range d1.Entities {
		set[strings.ToLower(e)] = true
	}
	var out []string
	for _, e := range d2.Entities {
		if set[strings.ToLower(e)] {
			out = append(out, e)
		}
	}
	sort.Strings(out)
	return out
}

func sharedParentDirs(d1, d2 *analysis.DomainSummary) int {
	dirs1 := make(map[string]bool)
	for _, f := range d1.SourceFiles {
		dirs1[path.Dir(f)] = true
	}
	seen := make(map[string]bool)
	for _, f := range d2.SourceFiles {
		d := path.Dir(f)
		if dirs1[d] && !seen[d] {
			seen[d] = true
		}
	}
	return len(seen)
}

// hasEventAction checks for a reducer-style event constant (SUCCESS,
// FAILURE, ERROR) in the domain's action list.
func hasEventAction(d *analysis.DomainSummary) bool {
	for _, action := range d.Actions {
		upper := strings.ToUpper(action)
		if strings.Contains(upper, "SUCCESS") || strings.Contains(upper, "FAILURE") || strings.Contains(upper, "ERROR") {
			return true
		}
	}
	return false
}

func capped(v, cap float64) float64 {
	if v > cap {
		return cap
	}
	return v
}

// AnalyzeBoundaries mutates each summary's Boundaries in place:
// which domains it imports from and exports to, and the entity names
// it shares with any other domain.
func (a *Analyzer) AnalyzeBoundaries(domains []analysis.DomainSummary) []analysis.DomainSummary {
	for i := range domains {
		importSet := make(map[string]bool)
		exportSet := make(map[string]bool)
		sharedSet := make(map[string]bool)
		for j := range domains {
			if i == j {
				continue
			}
			if a.crossEdges(&domains[i], &domains[j]) > 0 {
				importSet[domains[j].ID] = true
			}
			if a.crossEdges(&domains[j], &domains[i]) > 0 {
				exportSet[domains[j].ID] = true
			}
			for _, e := range sharedEntities(&domains[i], &domains[j]) {
				sharedSet[e] = true
			}
		}
		domains[i].Boundaries = analysis.DomainBoundaries{
			Imports:     sortedKeys(importSet),
			Exports:     sortedKeys(exportSet),
			SharedState: sortedKeys(sharedSet),
		}
	}
	return domains
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
