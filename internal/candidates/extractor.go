// Package candidates proposes named domain candidates from detected
// patterns. Four heuristics run independently; their output is always
// unioned and then merged by normalized name.
package candidates

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"

	"boundary/internal/analysis"
)

type Extractor struct {
	locator         *analysis.Locator
	genericHooks    map[string]bool
	reviewThreshold float64
}

func NewExtractor(locator *analysis.Locator, genericHooks []string, reviewThreshold float64) *Extractor {
	e := &Extractor{
		locator:         locator,
		genericHooks:    make(map[string]bool, len(genericHooks)),
		reviewThreshold: reviewThreshold,
	}
	for _, h := range genericHooks {
		e.genericHooks[strings.ToLower(h)] = true
	}
	return e
}

// Extract runs all four heuristics and merges the union.
func (e *Extractor) Extract(files []analysis.FileAnalysis) []analysis.DomainCandidate {
	var all []analysis.DomainCandidate
	all = append(all, e.fromContexts(files)...)
	all = append(all, e.fromReducers(files)...)
	all = append(all, e.fromHooks(files)...)
	all = append(all, e.fromFileStructure(files)...)
	return Merge(all)
}

// fromContexts: a shared-state container with an enclosing provider
// names a domain. "UserAuthContext" -> "user-auth".
func (e *Extractor) fromContexts(files []analysis.FileAnalysis) []analysis.DomainCandidate {
	var out []analysis.DomainCandidate
	for _, f := range files {
		for _, p := range f.Patterns {
			if p.Type != analysis.PatternContext || !p.Metadata.HasProvider {
				continue
			}
			raw := p.Metadata.ContextName
			if raw == "" {
				raw = p.Name
			}
			name := stripSuffixes(raw, "Context", "Provider")
			if name == "" {
				continue
			}
			out = append(out, analysis.DomainCandidate{
				ID:          uuid.NewString(),
				Name:        analysis.HyphenName(name),
				SuggestedBy: analysis.SourceContext,
				SourceFiles: []string{f.RelativePath},
				Patterns:    []analysis.DetectedPattern{p},
				Confidence:  p.Confidence,
			})
		}
	}
	return out
}

func (e *Extractor) fromReducers(files []analysis.FileAnalysis) []analysis.DomainCandidate {
	var out []analysis.DomainCandidate
	for _, f := range files {
		for _, p := range f.Patterns {
			if p.Type != analysis.PatternReducer {
				continue
			}
			name := stripSuffixes(p.Name, "Reducer")
			if name == "" {
				continue
			}
			out = append(out, analysis.DomainCandidate{
				ID:          uuid.NewString(),
				Name:        analysis.HyphenName(name),
				SuggestedBy: analysis.SourceReducer,
				SourceFiles: []string{f.RelativePath},
				Patterns:    []analysis.DetectedPattern{p},
				Confidence:  p.Confidence,
			})
		}
	}
	return out
}

// fromHooks names a domain from a custom hook minus its "use" prefix.
// Generic, domain-agnostic hooks are skipped outright.
func (e *Extractor) fromHooks(files []analysis.FileAnalysis) []analysis.DomainCandidate {
	var out []analysis.DomainCandidate
	for _, f := range files {
		for _, p := range f.Patterns {
			if p.Type != analysis.PatternHook || !p.Metadata.IsCustomHook {
				continue
			}
			if e.genericHooks[strings.ToLower(p.Name)] {
				continue
			}
			name := strings.TrimPrefix(p.Name, "use")
			if name == "" || name == p.Name {
				continue
			}
			out = append(out, analysis.DomainCandidate{
				ID:          uuid.NewString(),
				Name:        analysis.HyphenName(name),
				SuggestedBy: analysis.SourceHook,
				SourceFiles: []string{f.RelativePath},
				Patterns:    []analysis.DetectedPattern{p},
				Confidence:  p.Confidence * 0.8, // hooks are the weakest naming signal
			})
		}
	}
	return out
}

// fromFileStructure: every feature-convention directory holding at
// least two files becomes one candidate.
func (e *Extractor) fromFileStructure(files []analysis.FileAnalysis) []analysis.DomainCandidate {
	byDir := make(map[string][]string)
	for _, f := range files {
		if dir := e.locator.FeatureDirOf(f.RelativePath); dir != "" {
			byDir[dir] = append(byDir[dir], f.RelativePath)
		}
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	var out []analysis.DomainCandidate
	for _, dir := range dirs {
		members := byDir[dir]
		if len(members) < 2 {
			continue
		}
		sort.Strings(members)
		out = append(out, analysis.DomainCandidate{
			ID:          uuid.NewString(),
			Name:        analysis.HyphenName(path.Base(dir)),
			SuggestedBy: analysis.SourceFileStructure,
			SourceFiles: members,
			Confidence:  0.6,
		})
	}
	return out
}

// Merge groups candidates by normalized name, unions source files and
// patterns, and keeps the maximum confidence. Merging is idempotent.
func Merge(cands []analysis.DomainCandidate) []analysis.DomainCandidate {
	type group struct {
		best     analysis.DomainCandidate
		files    map[string]bool
		patterns []analysis.DetectedPattern
		patSeen  map[string]bool
		rels     map[string]bool
	}

	groups := make(map[string]*group)
	var order []string

	for _, c := range cands {
		key := analysis.NormalizeName(c.Name)
		g, ok := groups[key]
		if !ok {
			g = &group{
				best:    c,
				files:   make(map[string]bool),
				patSeen: make(map[string]bool),
				rels:    make(map[string]bool),
			}
			groups[key] = g
			order = append(order, key)
		}
		if c.Confidence > g.best.Confidence {
			g.best = c
		}
		for _, f := range c.SourceFiles {
			g.files[f] = true
		}
		for _, p := range c.Patterns {
			pk := fmt.Sprintf("%s|%s|%s", p.Type, p.Name, p.Location.File)
			if !g.patSeen[pk] {
				g.patSeen[pk] = true
				g.patterns = append(g.patterns, p)
			}
		}
		for _, r := range c.Relationships {
			g.rels[r] = true
		}
	}

	out := make([]analysis.DomainCandidate, 0, len(groups))
	for _, key := range order {
		g := groups[key]
		merged := g.best
		merged.SourceFiles = sortedKeys(g.files)
		merged.Patterns = g.patterns
		merged.Relationships = sortedKeys(g.rels)
		out = append(out, merged)
	}
	return out
}

// DetectAmbiguousPatterns reports everything a human should look at
// before clustering: low-confidence patterns, patterns the detector
// itself flagged, and files claimed by more than one candidate.
func (e *Extractor) DetectAmbiguousPatterns(files []analysis.FileAnalysis, cands []analysis.DomainCandidate) []analysis.AmbiguousPattern {
	var out []analysis.AmbiguousPattern

	for _, f := range files {
		for i := range f.Patterns {
			p := f.Patterns[i]
			if p.Confidence < e.reviewThreshold {
				out = append(out, analysis.AmbiguousPattern{
					File:        f.RelativePath,
					Pattern:     &p,
					Reason:      analysis.AmbiguityLowConfidence,
					Description: fmt.Sprintf("%s %q confidence %.2f below threshold %.2f", p.Type, p.Name, p.Confidence, e.reviewThreshold),
				})
			} else if p.NeedsReview {
				out = append(out, analysis.AmbiguousPattern{
					File:        f.RelativePath,
					Pattern:     &p,
					Reason:      analysis.AmbiguityFlaggedReview,
					Description: fmt.Sprintf("%s %q flagged for review by the detector", p.Type, p.Name),
				})
			}
		}
	}

	claims := make(map[string][]string) // file -> candidate names
	for _, c := range cands {
		for _, f := range c.SourceFiles {
			claims[f] = append(claims[f], c.Name)
		}
	}
	claimed := make([]string, 0, len(claims))
	for f := range claims {
		claimed = append(claimed, f)
	}
	sort.Strings(claimed)
	for _, f := range claimed {
		names := claims[f]
		if len(names) < 2 {
			continue
		}
		sort.Strings(names)
		out = append(out, analysis.AmbiguousPattern{
			File:        f,
			Reason:      analysis.AmbiguityMultiCandidate,
			Description: fmt.Sprintf("file claimed by %d candidates: %s", len(names), strings.Join(names, ", ")),
			Candidates:  names,
		})
	}

	return out
}

func stripSuffixes(name string, suffixes ...string) string {
	for changed := true; changed; {
		changed = false
		for _, s := range suffixes {
			if strings.HasSuffix(name, s) && len(name) > len(s) {
				name = strings.TrimSuffix(name, s)
				changed = true
			}
		}
	}
	return name
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
