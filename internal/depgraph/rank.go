package depgraph

import (
	"path"
	"sort"
	"strings"

	"boundary/internal/analysis"
)

// Ranker turns analyses into an advisory processing order. Scores
// never affect downstream correctness; they only decide which files a
// consumer should look at first.
type Ranker struct {
	EntryNames []string // basenames (without extension) treated as entry points
}

func NewRanker(entryNames []string) *Ranker {
	if len(entryNames) == 0 {
		entryNames = []string{"index", "main", "app"}
	}
	return &Ranker{EntryNames: entryNames}
}

// Rank scores every file and returns pending tasks sorted by priority,
// highest first, ties broken by path.
func (r *Ranker) Rank(files []analysis.FileAnalysis, g *Graph) []analysis.FileTask {
	tasks := make([]analysis.FileTask, 0, len(files))
	for _, f := range files {
		tasks = append(tasks, analysis.FileTask{
			Path:         f.Path,
			RelativePath: f.RelativePath,
			Priority:     r.Score(f, g),
			Dependencies: g.ImportsOf(f.RelativePath),
			Status:       analysis.TaskPending,
		})
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Priority != tasks[j].Priority {
			return tasks[i].Priority > tasks[j].Priority
		}
		return tasks[i].RelativePath < tasks[j].RelativePath
	})
	return tasks
}

// Score starts at 50 and applies the pattern and shape bonuses and
// penalties, clamped to [0,100].
func (r *Ranker) Score(f analysis.FileAnalysis, g *Graph) int {
	score := 50.0

	base := strings.TrimSuffix(path.Base(f.RelativePath), path.Ext(f.RelativePath))
	for _, entry := range r.EntryNames {
		if strings.EqualFold(base, entry) {
			score += 30
			break
		}
	}

	var hasContext, hasProvider, hasReducer, hasExportedHook bool
	exported := make(map[string]bool, len(f.Exports))
	for _, e := range f.Exports {
		exported[e] = true
	}
	for _, p := range f.Patterns {
		switch p.Type {
		case analysis.PatternContext:
			hasContext = true
			if p.Metadata.HasProvider {
				hasProvider = true
			}
		case analysis.PatternReducer:
			hasReducer = true
		case analysis.PatternHook:
			if p.Metadata.IsCustomHook && exported[p.Name] {
				hasExportedHook = true
			}
		}
	}
	if hasContext {
		score += 25
	}
	if hasExportedHook {
		score += 20
	}
	if hasReducer {
		score += 20
	}
	if hasProvider {
		score += 15
	}

	exportBonus := float64(len(f.Exports)) * 4
	if exportBonus > 20 {
		exportBonus = 20
	}
	score += exportBonus

	importPenalty := float64(len(g.ImportsOf(f.RelativePath))) * 1.5
	if importPenalty > 15 {
		importPenalty = 15
	}
	score -= importPenalty

	sizePenalty := float64(f.LineCount) / 100
	if sizePenalty > 10 {
		sizePenalty = 10
	}
	score -= sizePenalty

	depth := strings.Count(f.RelativePath, "/")
	depthPenalty := float64(depth) * 3
	if depthPenalty > 15 {
		depthPenalty = 15
	}
	score -= depthPenalty

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(score)
}
