package relations

import (
	"testing"

	"boundary/internal/analysis"
	"boundary/internal/depgraph"
)

func domain(id, name string, files ...string) analysis.DomainSummary {
	return analysis.DomainSummary{ID: id, Name: name, SourceFiles: files}
}

func importing(rel string, imports ...string) analysis.FileAnalysis {
	f := analysis.FileAnalysis{RelativePath: rel}
	for _, imp := range imports {
		f.Imports = append(f.Imports, analysis.ImportStatement{Source: imp})
	}
	return f
}

func TestAnalyze_DependencyRelationship(t *testing.T) {
	g := depgraph.Build([]analysis.FileAnalysis{
		importing("cart/store.ts", "../auth/session"),
		importing("cart/items.ts", "../auth/session"),
		importing("auth/session.ts"),
	})
	a := NewAnalyzer(g)

	auth := domain("d-auth", "auth", "auth/session.ts")
	cart := domain("d-cart", "cart", "cart/store.ts", "cart/items.ts")

	rels := a.Analyze([]analysis.DomainSummary{auth, cart})
	if len(rels) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(rels))
	}
	r := rels[0]
	if r.Type != analysis.RelDependency {
		t.Errorf("type = %q, want dependency", r.Type)
	}
	if r.From != "d-cart" || r.To != "d-auth" {
		t.Errorf("direction must favor the heavier importer: %s -> %s", r.From, r.To)
	}
	if r.Strength < 0.1 || r.Strength > 1 {
		t.Errorf("strength %v outside [0.1,1]", r.Strength)
	}
}

func TestAnalyze_SharedStateTakesPrecedence(t *testing.T) {
	g := depgraph.Build([]analysis.FileAnalysis{
		importing("cart/store.ts", "../user/profile"),
		importing("user/profile.ts"),
	})
	a := NewAnalyzer(g)

	cart := domain("d-cart", "cart", "cart/store.ts")
	cart.Entities = []string{"User"}
	user := domain("d-user", "user", "user/profile.ts")
	user.Entities = []string{"user"} // case-insensitive match

	rels := a.Analyze([]analysis.DomainSummary{cart, user})
	if len(rels) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(rels))
	}
	if rels[0].Type != analysis.RelSharedState {
		t.Errorf("shared entities must outrank dependency typing, got %q", rels[0].Type)
	}
}

func TestAnalyze_EventFlowNeedsEdgeAndEventAction(t *testing.T) {
	g := depgraph.Build([]analysis.FileAnalysis{
		importing("orders/list.ts", "../auth/session"),
		importing("auth/session.ts"),
	})
	a := NewAnalyzer(g)

	auth := domain("d-auth", "auth", "auth/session.ts")
	auth.Actions = []string{"LOGIN_SUCCESS"}
	orders := domain("d-orders", "orders", "orders/list.ts")

	rels := a.Analyze([]analysis.DomainSummary{auth, orders})
	if len(rels) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(rels))
	}
	if rels[0].Type != analysis.RelEventFlow {
		t.Errorf("type = %q, want event_flow", rels[0].Type)
	}
}

func TestAnalyze_ProximityAloneIsNotARelationship(t *testing.T) {
	g := depgraph.Build([]analysis.FileAnalysis{
		importing("lib/a.ts"),
		importing("lib/b.ts"),
	})
	a := NewAnalyzer(g)

	d1 := domain("d1", "alpha", "lib/a.ts")
	d2 := domain("d2", "beta", "lib/b.ts")

	if rels := a.Analyze([]analysis.DomainSummary{d1, d2}); len(rels) != 0 {
		t.Errorf("shared parent dir only must not materialize: %v", rels)
	}
}

func TestAnalyze_BelowThresholdDropped(t *testing.T) {
	// no edges, no shared entities, no shared dirs -> strength 0
	g := depgraph.Build(nil)
	a := NewAnalyzer(g)
	d1 := domain("d1", "alpha", "one/a.ts")
	d2 := domain("d2", "beta", "two/b.ts")
	if rels := a.Analyze([]analysis.DomainSummary{d1, d2}); len(rels) != 0 {
		t.Errorf("unrelated domains must produce nothing, got %v", rels)
	}
}

func TestAnalyze_StrengthCapsHold(t *testing.T) {
	// ten edges would be 1.0 uncapped; the import component caps at 0.5
	var files []analysis.FileAnalysis
	var cartFiles []string
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		rel := "cart/" + name + ".ts"
		files = append(files, importing(rel, "../auth/session"))
		cartFiles = append(cartFiles, rel)
	}
	files = append(files, importing("auth/session.ts"))
	a := NewAnalyzer(depgraph.Build(files))

	auth := domain("d-auth", "auth", "auth/session.ts")
	cart := domain("d-cart", "cart", cartFiles...)

	rels := a.Analyze([]analysis.DomainSummary{auth, cart})
	if len(rels) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(rels))
	}
	if rels[0].Strength != 0.5 {
		t.Errorf("import-only strength = %v, want cap 0.5", rels[0].Strength)
	}
}

func TestAnalyzeBoundaries(t *testing.T) {
	g := depgraph.Build([]analysis.FileAnalysis{
		importing("cart/store.ts", "../auth/session"),
		importing("auth/session.ts"),
	})
	a := NewAnalyzer(g)

	auth := domain("d-auth", "auth", "auth/session.ts")
	auth.Entities = []string{"User"}
	cart := domain("d-cart", "cart", "cart/store.ts")
	cart.Entities = []string{"user"}

	domains := a.AnalyzeBoundaries([]analysis.DomainSummary{auth, cart})

	if len(domains[0].Boundaries.Exports) != 1 || domains[0].Boundaries.Exports[0] != "d-cart" {
		t.Errorf("auth exports = %v, want [d-cart]", domains[0].Boundaries.Exports)
	}
	if len(domains[1].Boundaries.Imports) != 1 || domains[1].Boundaries.Imports[0] != "d-auth" {
		t.Errorf("cart imports = %v, want [d-auth]", domains[1].Boundaries.Imports)
	}
	if len(domains[0].Boundaries.SharedState) != 1 {
		t.Errorf("auth shared state = %v", domains[0].Boundaries.SharedState)
	}
}

func TestDetectCyclicDependencies_Rotation(t *testing.T) {
	a := domain("A", "alpha")
	b := domain("B", "beta")
	c := domain("C", "gamma")
	rels := []analysis.DomainRelationship{
		{Type: analysis.RelDependency, From: "A", To: "B"},
		{Type: analysis.RelDependency, From: "B", To: "C"},
		{Type: analysis.RelDependency, From: "C", To: "A"},
		{Type: analysis.RelSharedState, From: "C", To: "B"}, // non-dependency edges are ignored
	}

	cycles := DetectCyclicDependencies([]analysis.DomainSummary{a, b, c}, rels)
	if len(cycles) != 1 {
		t.Fatalf("expected 1 cycle, got %d: %v", len(cycles), cycles)
	}
	if len(cycles[0]) != 3 {
		t.Fatalf("cycle length = %d, want 3", len(cycles[0]))
	}
	members := map[string]bool{}
	for _, id := range cycles[0] {
		members[id] = true
	}
	if !members["A"] || !members["B"] || !members["C"] {
		t.Errorf("cycle members = %v", cycles[0])
	}
}

func TestDetectCyclicDependencies_AcyclicProducesNothing(t *testing.T) {
	rels := []analysis.DomainRelationship{
		{Type: analysis.RelDependency, From: "A", To: "B"},
		{Type: analysis.RelDependency, From: "A", To: "C"},
		{Type: analysis.RelDependency, From: "B", To: "C"},
	}
	domains := []analysis.DomainSummary{domain("A", "a"), domain("B", "b"), domain("C", "c")}
	if cycles := DetectCyclicDependencies(domains, rels); len(cycles) != 0 {
		t.Errorf("acyclic graph produced cycles: %v", cycles)
	}
}
