package cluster

import (
	"testing"

	"boundary/internal/analysis"
	"boundary/internal/depgraph"
)

func newTestEngine(files []analysis.FileAnalysis) *Engine {
	locator := analysis.NewLocator([]string{"features"}, []string{"shared"})
	return NewEngine(locator, depgraph.Build(files), 0.5, 2)
}

func relPaths(files []analysis.FileAnalysis) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.RelativePath)
	}
	return out
}

func TestCluster_FeatureDirsGroupAndSeparate(t *testing.T) {
	files := []analysis.FileAnalysis{
		analyzed("src/features/auth/api.ts"),
		analyzed("src/features/auth/hooks.ts"),
		analyzed("src/features/auth/session.ts"),
		analyzed("src/features/cart/store.ts"),
		analyzed("src/features/cart/items.ts"),
	}
	e := newTestEngine(files)
	clusters := e.Cluster(relPaths(files))

	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d: %v", len(clusters), clusters)
	}
	sizes := map[int]bool{}
	for _, c := range clusters {
		sizes[len(c.Files)] = true
		if c.Density <= 0 || c.Density > 1 {
			t.Errorf("cluster density %v outside (0,1]", c.Density)
		}
		if c.Centroid == "" {
			t.Error("cluster missing centroid")
		}
	}
	if !sizes[3] || !sizes[2] {
		t.Errorf("expected clusters of size 3 and 2: %v", clusters)
	}
}

func TestCluster_NoiseStaysOut(t *testing.T) {
	files := []analysis.FileAnalysis{
		analyzed("src/features/auth/api.ts"),
		analyzed("src/features/auth/hooks.ts"),
		analyzed("src/lonely/far/away.ts"),
	}
	e := newTestEngine(files)
	clusters := e.Cluster(relPaths(files))

	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	for _, f := range clusters[0].Files {
		if f == "src/lonely/far/away.ts" {
			t.Error("noise file must not join a cluster")
		}
	}
}

func TestCluster_FullyConnectedDensityIsOne(t *testing.T) {
	files := []analysis.FileAnalysis{
		analyzed("src/features/auth/a.ts"),
		analyzed("src/features/auth/b.ts"),
		analyzed("src/features/auth/c.ts"),
	}
	e := newTestEngine(files)
	clusters := e.Cluster(relPaths(files))
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].Density != 1 {
		t.Errorf("fully connected cluster density = %v, want 1", clusters[0].Density)
	}
}

func TestReconcile_BestCandidateNamesTheDomain(t *testing.T) {
	files := []analysis.FileAnalysis{
		analyzed("src/features/auth/AuthContext.tsx"),
		analyzed("src/features/auth/useAuth.ts"),
	}
	e := newTestEngine(files)
	clusters := e.Cluster(relPaths(files))

	cands := []analysis.DomainCandidate{
		{ID: "weak", Name: "session", SuggestedBy: analysis.SourceHook,
			SourceFiles: []string{"src/features/auth/useAuth.ts"}, Confidence: 0.55},
		{ID: "strong", Name: "auth", SuggestedBy: analysis.SourceContext,
			SourceFiles: []string{"src/features/auth/AuthContext.tsx"}, Confidence: 0.9},
	}

	domains := e.Reconcile(clusters, cands, files)
	if len(domains) != 1 {
		t.Fatalf("expected 1 domain, got %d", len(domains))
	}
	d := domains[0]
	if d.Name != "auth" {
		t.Errorf("name = %q, want auth (highest-confidence candidate)", d.Name)
	}
	if d.Confidence != 0.9 || d.SuggestedBy != analysis.SourceContext {
		t.Errorf("provenance not inherited: %+v", d)
	}
	if d.NeedsReview {
		t.Error("candidate-backed domain must not need review")
	}
}

func TestReconcile_UnmatchedClusterFlagsReview(t *testing.T) {
	files := []analysis.FileAnalysis{
		analyzed("src/features/billing/invoice.ts"),
		analyzed("src/features/billing/payment.ts"),
	}
	e := newTestEngine(files)
	clusters := e.Cluster(relPaths(files))

	domains := e.Reconcile(clusters, nil, files)
	if len(domains) != 1 {
		t.Fatalf("expected 1 domain, got %d", len(domains))
	}
	d := domains[0]
	if !d.NeedsReview {
		t.Error("unmatched cluster must be flagged for review")
	}
	if d.Name == "" {
		t.Error("unmatched cluster still needs a derived name")
	}
	want := clusters[0].Density * 0.7
	if d.Confidence != want {
		t.Errorf("confidence = %v, want density*0.7 = %v", d.Confidence, want)
	}
}

func TestReconcile_SummaryShapeFromPatterns(t *testing.T) {
	files := []analysis.FileAnalysis{
		{
			RelativePath: "src/features/cart/reducer.ts",
			Patterns: []analysis.DetectedPattern{{
				Type: analysis.PatternReducer, Name: "cartReducer", Confidence: 0.9,
				Metadata: analysis.PatternMetadata{Actions: []string{"ADD_ITEM", "REMOVE_ITEM"}},
			}},
		},
		analyzed("src/features/cart/hooks.ts"),
	}
	e := newTestEngine(files)
	clusters := e.Cluster(relPaths(files))
	domains := e.Reconcile(clusters, nil, files)

	if len(domains) != 1 {
		t.Fatalf("expected 1 domain, got %d", len(domains))
	}
	d := domains[0]
	if len(d.Entities) != 1 || d.Entities[0] != "cartState" {
		t.Errorf("entities = %v, want [cartState]", d.Entities)
	}
	if len(d.Actions) != 2 {
		t.Errorf("actions = %v", d.Actions)
	}
}
