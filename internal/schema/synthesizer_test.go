package schema

import (
	"context"
	"strings"
	"testing"

	"boundary/internal/analysis"
	"boundary/internal/llm"
)

func authDomain() analysis.DomainSummary {
	return analysis.DomainSummary{
		ID:          "d-auth",
		Name:        "auth",
		SourceFiles: []string{"src/features/auth/reducer.ts", "src/features/auth/AuthContext.tsx"},
	}
}

func authPatterns() []analysis.DetectedPattern {
	return []analysis.DetectedPattern{
		{
			Type: analysis.PatternReducer, Name: "authReducer", Confidence: 0.9,
			Metadata: analysis.PatternMetadata{
				StateShape: map[string]string{"user": "object", "loading": "boolean", "error": "string"},
				Actions:    []string{"LOGIN_SUCCESS", "LOGIN_FAILURE", "LOGOUT"},
			},
		},
		{
			Type: analysis.PatternContext, Name: "AuthContext", Confidence: 0.9,
			Metadata: analysis.PatternMetadata{
				ContextName:  "AuthContext",
				ContextValue: `{"user": "object", "isAuthenticated": "boolean"}`,
				HasProvider:  true,
			},
		},
	}
}

func TestSynthesize_AuthEndToEnd(t *testing.T) {
	s := NewSynthesizer(0.5, nil, llm.Options{})
	p := s.Synthesize(context.Background(), authDomain(), authPatterns(), nil)

	if p.DomainName != "auth" {
		t.Fatalf("domainName = %q", p.DomainName)
	}

	intents := map[string]string{}
	for _, f := range p.Intents {
		intents[f.Path] = f.Type
	}
	if kind := intents["auth.intents.loginSuccess"]; kind != "event" {
		t.Errorf("auth.intents.loginSuccess = %q, want event", kind)
	}
	if kind := intents["auth.intents.logout"]; kind != "command" {
		t.Errorf("auth.intents.logout = %q, want command", kind)
	}
	if kind := intents["auth.intents.loginFailure"]; kind != "event" {
		t.Errorf("auth.intents.loginFailure = %q, want event", kind)
	}

	statePaths := map[string]bool{}
	for _, f := range p.State {
		statePaths[f.Path] = true
	}
	for _, want := range []string{"auth.state.user", "auth.state.loading", "auth.state.error", "auth.state.isAuthenticated"} {
		if !statePaths[want] {
			t.Errorf("missing state path %s; have %v", want, statePaths)
		}
	}

	entityPaths := map[string]bool{}
	for _, f := range p.Entities {
		entityPaths[f.Path] = true
	}
	if !entityPaths["auth.entities.authState.user"] {
		t.Errorf("missing reducer entity field; have %v", entityPaths)
	}
	if !entityPaths["auth.entities.auth.isAuthenticated"] {
		t.Errorf("missing context entity field; have %v", entityPaths)
	}

	if p.NeedsReview {
		t.Errorf("well-evidenced domain must not need review; notes: %v", p.ReviewNotes)
	}
	if p.Confidence < 0.5 {
		t.Errorf("confidence = %v", p.Confidence)
	}
}

func TestSynthesize_EveryPathInDomainNamespace(t *testing.T) {
	s := NewSynthesizer(0.5, nil, llm.Options{})
	p := s.Synthesize(context.Background(), authDomain(), authPatterns(), []string{"d-cart"})

	for _, f := range p.Fields() {
		if !strings.HasPrefix(f.Path, "auth.") {
			t.Errorf("path %q escapes the domain namespace", f.Path)
		}
	}
	v := ValidateSchemaProposal(&p)
	if !v.Valid {
		t.Errorf("proposal failed validation: %v", v.Errors)
	}
}

func TestSynthesize_EmptyDomainFlagsReview(t *testing.T) {
	s := NewSynthesizer(0.5, nil, llm.Options{})
	d := analysis.DomainSummary{ID: "d-x", Name: "mystery"}
	p := s.Synthesize(context.Background(), d, nil, nil)

	if !p.NeedsReview {
		t.Error("patternless domain must need review")
	}
	if p.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", p.Confidence)
	}
	if len(p.ReviewNotes) < 2 {
		t.Errorf("expected both missing-entities and missing-intents notes: %v", p.ReviewNotes)
	}
}

func TestSynthesize_HookAndEffectDiscounts(t *testing.T) {
	s := NewSynthesizer(0.5, nil, llm.Options{})
	patterns := []analysis.DetectedPattern{
		{Type: analysis.PatternHook, Name: "useCart", Confidence: 0.8,
			Metadata: analysis.PatternMetadata{IsCustomHook: true}},
		{Type: analysis.PatternEffect, Name: "syncCart", Confidence: 0.6},
		{Type: analysis.PatternEffect, Name: "useEffect", Confidence: 0.9}, // anonymous, skipped
		{Type: analysis.PatternEffect, Name: "lowSignal", Confidence: 0.4}, // below floor, skipped
	}
	d := analysis.DomainSummary{ID: "d-cart", Name: "cart"}
	p := s.Synthesize(context.Background(), d, patterns, nil)

	byPath := map[string]analysis.SchemaFieldProposal{}
	for _, f := range p.Intents {
		byPath[f.Path] = f
	}
	if len(byPath) != 2 {
		t.Fatalf("expected 2 intents, got %v", byPath)
	}

	hook, ok := byPath["cart.intents.getCart"]
	if !ok || hook.Type != "query" {
		t.Fatalf("missing hook query intent: %v", byPath)
	}
	if !approxEqual(hook.Confidence, 0.8*0.7) {
		t.Errorf("hook confidence = %v, want %v", hook.Confidence, 0.8*0.7)
	}

	effect, ok := byPath["cart.intents.syncCart"]
	if !ok || effect.Type != "event" {
		t.Fatalf("missing effect event intent: %v", byPath)
	}
	if !approxEqual(effect.Confidence, 0.6*0.8) {
		t.Errorf("effect confidence = %v, want %v", effect.Confidence, 0.6*0.8)
	}
}

func TestSynthesize_PathDedupeKeepsHighestConfidence(t *testing.T) {
	s := NewSynthesizer(0.5, nil, llm.Options{})
	patterns := []analysis.DetectedPattern{
		{Type: analysis.PatternReducer, Name: "cartReducer", Confidence: 0.9,
			Metadata: analysis.PatternMetadata{Actions: []string{"ADD_ITEM"}}},
		{Type: analysis.PatternReducer, Name: "cartBackupReducer", Confidence: 0.6,
			Metadata: analysis.PatternMetadata{Actions: []string{"ADD_ITEM"}}},
	}
	d := analysis.DomainSummary{ID: "d-cart", Name: "cart"}
	p := s.Synthesize(context.Background(), d, patterns, nil)

	count := 0
	for _, f := range p.Intents {
		if f.Path == "cart.intents.addItem" {
			count++
			if f.Confidence != 0.9 {
				t.Errorf("deduped intent confidence = %v, want 0.9", f.Confidence)
			}
		}
	}
	if count != 1 {
		t.Errorf("addItem appears %d times, want 1", count)
	}
}

func approxEqual(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
