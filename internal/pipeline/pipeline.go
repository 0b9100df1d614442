// Package pipeline is the host loop driving the six discovery stages
// in order: graph, ranking, candidates, clustering, relationships,
// proposals. Each stage is a pure transformation; the loop owns
// snapshot persistence, metrics, tracing and fatal-error policy.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"boundary/internal/analysis"
	"boundary/internal/apperr"
	"boundary/internal/candidates"
	"boundary/internal/cluster"
	"boundary/internal/config"
	"boundary/internal/depgraph"
	"boundary/internal/llm"
	"boundary/internal/observability"
	"boundary/internal/relations"
	"boundary/internal/schema"
	"boundary/internal/session"
)

// Result is everything one run produces. All slices are owned by the
// run; nothing is shared across runs.
type Result struct {
	SessionID     string                        `json:"sessionId"`
	Tasks         []analysis.FileTask           `json:"tasks"`
	Candidates    []analysis.DomainCandidate    `json:"candidates"`
	Ambiguities   []analysis.AmbiguousPattern   `json:"ambiguities"`
	Domains       []analysis.DomainSummary      `json:"domains"`
	Relationships []analysis.DomainRelationship `json:"relationships"`
	Cycles        [][]string                    `json:"cycles"`
	Conflicts     []analysis.DomainConflict     `json:"conflicts"`
	Proposals     []analysis.SchemaProposal     `json:"proposals"`
}

// PendingReviews counts everything a human should resolve before the
// result is trusted downstream.
func (r *Result) PendingReviews() int {
	n := len(r.Ambiguities) + len(r.Conflicts)
	for _, p := range r.Proposals {
		if p.NeedsReview {
			n++
		}
	}
	return n
}

type Pipeline struct {
	cfg   *config.Config
	store *session.Store // nil disables persistence
	svc   llm.Service    // nil disables enrichment

	mu     sync.Mutex
	active map[string]bool // one active run per session
}

func New(cfg *config.Config, store *session.Store, svc llm.Service) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		store:  store,
		svc:    svc,
		active: make(map[string]bool),
	}
}

// Run executes all six stages over the detector's output. Stages are
// synchronous and sequential; the only suspension points are the
// synthesizer's language-model calls, awaited one domain at a time.
// An invariant violation aborts the run, marks the session failed and
// comes back as an error.
func (p *Pipeline) Run(ctx context.Context, sessionID string, files []analysis.FileAnalysis) (result *Result, err error) {
	p.mu.Lock()
	if p.active[sessionID] {
		p.mu.Unlock()
		return nil, apperr.Newf(apperr.CodeConflict, "session %s already has an active run", sessionID)
	}
	p.active[sessionID] = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.active, sessionID)
		p.mu.Unlock()
	}()

	defer func() {
		if r := recover(); r != nil {
			p.markFailed(sessionID)
			err = apperr.Newf(apperr.CodeInvariant, "pipeline aborted: %v", r).WithContext(apperr.CtxSession, sessionID)
			result = nil
		}
	}()

	result = &Result{SessionID: sessionID}
	locator := analysis.NewLocator(p.cfg.Discovery.FeatureDirs, p.cfg.Discovery.SharedDirs)

	// Stage 1+2: dependency graph and advisory ordering.
	var graph *depgraph.Graph
	p.phase(ctx, sessionID, "graph", result, func(ctx context.Context) {
		graph = depgraph.Build(files)
		observability.GraphNodes.Set(float64(graph.NodeCount()))
		observability.GraphEdges.Set(float64(graph.EdgeCount()))
		result.Tasks = depgraph.NewRanker(p.cfg.Discovery.EntryNames).Rank(files, graph)
	})

	// Stage 3: candidate extraction and ambiguity detection.
	extractor := candidates.NewExtractor(locator, p.cfg.Discovery.GenericHooks, p.cfg.Discovery.ReviewThreshold)
	p.phase(ctx, sessionID, "candidates", result, func(ctx context.Context) {
		result.Candidates = extractor.Extract(files)
		result.Ambiguities = extractor.DetectAmbiguousPatterns(files, result.Candidates)
	})

	// Stage 4: clustering into domain summaries.
	engine := cluster.NewEngine(locator, graph, p.cfg.Clustering.SimilarityThreshold, p.cfg.Clustering.MinClusterSize)
	p.phase(ctx, sessionID, "clusters", result, func(ctx context.Context) {
		paths := make([]string, 0, len(files))
		for _, f := range files {
			paths = append(paths, f.RelativePath)
		}
		fileClusters := engine.Cluster(paths)
		result.Domains = engine.Reconcile(fileClusters, result.Candidates, files)
		observability.DomainsDiscovered.Set(float64(len(result.Domains)))
	})

	// Stage 5: relationships, cycles and conflicts.
	analyzer := relations.NewAnalyzer(graph)
	p.phase(ctx, sessionID, "relations", result, func(ctx context.Context) {
		result.Domains = analyzer.AnalyzeBoundaries(result.Domains)
		result.Relationships = analyzer.Analyze(result.Domains)
		result.Cycles = relations.DetectCyclicDependencies(result.Domains, result.Relationships)
		result.Conflicts = relations.DetectConflicts(result.Domains, result.Relationships, result.Cycles)
		byType := map[analysis.ConflictType]int{}
		for _, c := range result.Conflicts {
			byType[c.Type]++
		}
		for t, n := range byType {
			observability.ConflictsDetected.WithLabelValues(string(t)).Set(float64(n))
		}
	})

	// Stage 6: schema proposals, one domain at a time.
	synth := schema.NewSynthesizer(p.cfg.Discovery.ReviewThreshold, p.svc, llm.Options{
		Model:     p.cfg.LLM.Model,
		MaxTokens: p.cfg.LLM.MaxTokens,
	})
	p.phase(ctx, sessionID, "proposals", result, func(ctx context.Context) {
		patternIndex := patternsByFile(files)
		related := relatedIndex(result.Relationships)
		for _, d := range result.Domains {
			var domainPatterns []analysis.DetectedPattern
			for _, f := range d.SourceFiles {
				domainPatterns = append(domainPatterns, patternIndex[f]...)
			}
			proposal := synth.Synthesize(ctx, d, domainPatterns, related[d.ID])
			if v := schema.ValidateSchemaProposal(&proposal); !v.Valid {
				proposal.NeedsReview = true
				proposal.ReviewNotes = append(proposal.ReviewNotes, v.Errors...)
				slog.Warn("schema proposal failed validation, holding for review",
					"domain", d.Name, "errors", v.Errors)
			}
			result.Proposals = append(result.Proposals, proposal)
		}
	})

	observability.ReviewItemsPending.Set(float64(result.PendingReviews()))
	return result, nil
}

// phase wraps a stage with tracing, timing and snapshot persistence.
// The snapshot carries the result as accumulated so far, so any phase
// can be audited or resumed from later.
func (p *Pipeline) phase(ctx context.Context, sessionID, name string, result *Result, fn func(context.Context)) {
	ctx, span := observability.Tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	fn(ctx)
	observability.PhaseDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if p.store != nil {
		payload := snapshotPayload{Phase: name, At: time.Now().UTC(), Result: result}
		if _, err := p.store.SaveSnapshot(sessionID, name, payload); err != nil {
			slog.Warn("failed to persist phase snapshot", "phase", name, "error", err)
		}
	}
	slog.Debug("phase complete", "phase", name, "duration", time.Since(start))
}

// SaveResult persists the full result as the run's final snapshot.
func (p *Pipeline) SaveResult(result *Result) error {
	if p.store == nil {
		return nil
	}
	_, err := p.store.SaveSnapshot(result.SessionID, "result", result)
	if err != nil {
		return fmt.Errorf("persist result: %w", err)
	}
	return nil
}

func (p *Pipeline) markFailed(sessionID string) {
	if p.store == nil {
		return
	}
	if err := p.store.SetStatus(sessionID, session.StatusFailed); err != nil {
		slog.Warn("failed to mark session failed", "session", sessionID, "error", err)
	}
}

type snapshotPayload struct {
	Phase  string    `json:"phase"`
	At     time.Time `json:"at"`
	Result *Result   `json:"result"`
}

func patternsByFile(files []analysis.FileAnalysis) map[string][]analysis.DetectedPattern {
	out := make(map[string][]analysis.DetectedPattern, len(files))
	for _, f := range files {
		out[f.RelativePath] = f.Patterns
	}
	return out
}

func relatedIndex(rels []analysis.DomainRelationship) map[string][]string {
	out := make(map[string][]string)
	for _, r := range rels {
		out[r.From] = append(out[r.From], r.To)
		out[r.To] = append(out[r.To], r.From)
	}
	return out
}
