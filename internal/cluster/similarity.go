package cluster

import (
	"path"
	"strings"

	"boundary/internal/analysis"
	"boundary/internal/depgraph"
)

// Scorer computes pairwise file similarity. Scores are symmetric,
// cached, and clamped to [0,1]. Two hard rules override everything:
// files in different feature directories score exactly 0, and a
// shared-location file never clusters with a non-shared one.
type Scorer struct {
	locator *analysis.Locator
	graph   *depgraph.Graph
	cache   map[string]float64
}

func NewScorer(locator *analysis.Locator, g *depgraph.Graph) *Scorer {
	return &Scorer{
		locator: locator,
		graph:   g,
		cache:   make(map[string]float64),
	}
}

func (s *Scorer) Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	key := a + "\x00" + b
	if b < a {
		key = b + "\x00" + a
	}
	if v, ok := s.cache[key]; ok {
		return v
	}
	v := s.compute(a, b)
	s.cache[key] = v
	return v
}

func (s *Scorer) compute(a, b string) float64 {
	featA := s.locator.FeatureDirOf(a)
	featB := s.locator.FeatureDirOf(b)

	// Hard separation: distinct feature units never cluster, no
	// matter what other signals say.
	if featA != "" && featB != "" && featA != featB {
		return 0
	}

	sharedA := s.locator.IsShared(a)
	sharedB := s.locator.IsShared(b)
	if sharedA != sharedB {
		return 0
	}

	score := 0.0
	sameFeature := featA != "" && featA == featB
	unclassified := featA == "" && featB == "" && !sharedA && !sharedB

	switch {
	case sameFeature:
		score += 0.6
	case sharedA && sharedB:
		if path.Dir(a) == path.Dir(b) {
			score += 0.4
		}
	case unclassified:
		dirA, dirB := path.Dir(a), path.Dir(b)
		if dirA == dirB {
			score += 0.3
		} else if strings.HasPrefix(dirA+"/", dirB+"/") || strings.HasPrefix(dirB+"/", dirA+"/") {
			score += 0.15
		}
	}

	if s.graph.HasEdge(a, b) || s.graph.HasEdge(b, a) {
		switch {
		case sameFeature:
			score += 0.3
		case unclassified:
			score += 0.2
		default:
			score += 0.05
		}
	}

	score += namePrefixBonus(a, b)

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// namePrefixBonus rewards shared basename prefixes of three characters
// or more, up to 0.2 proportional to how much of the shorter name the
// prefix covers ("authApi" / "authReducer" score well).
func namePrefixBonus(a, b string) float64 {
	nameA := stem(a)
	nameB := stem(b)

	n := len(nameA)
	if len(nameB) < n {
		n = len(nameB)
	}
	prefix := 0
	for prefix < n && nameA[prefix] == nameB[prefix] {
		prefix++
	}
	if prefix < 3 || n == 0 {
		return 0
	}
	return 0.2 * float64(prefix) / float64(n)
}

func stem(p string) string {
	base := path.Base(p)
	return strings.ToLower(strings.TrimSuffix(base, path.Ext(base)))
}
