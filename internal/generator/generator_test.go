package generator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"boundary/internal/analysis"
)

func authProposal() analysis.SchemaProposal {
	return analysis.SchemaProposal{
		ID:         "p1",
		DomainID:   "d-auth",
		DomainName: "auth",
		Confidence: 0.85,
		Entities: []analysis.SchemaFieldProposal{
			{Path: "auth.entities.authState.user", Type: "object", Source: analysis.FieldFromHeuristic, Confidence: 0.9},
		},
		State: []analysis.SchemaFieldProposal{
			{Path: "auth.state.loading", Type: "boolean", Source: analysis.FieldFromHeuristic, Confidence: 0.9},
		},
		Intents: []analysis.SchemaFieldProposal{
			{Path: "auth.intents.loginSuccess", Type: "event", Source: analysis.FieldFromHeuristic, Confidence: 0.9},
		},
	}
}

func TestWriteAll_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	g := New(dir)

	written, err := g.WriteAll([]analysis.SchemaProposal{authProposal()})
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 1 || filepath.Base(written[0]) != "auth.schema.yaml" {
		t.Fatalf("written = %v", written)
	}

	data, err := os.ReadFile(written[0])
	if err != nil {
		t.Fatal(err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Domain != "auth" {
		t.Errorf("domain = %q", doc.Domain)
	}
	if doc.Confidence != 0.85 {
		t.Errorf("confidence = %v", doc.Confidence)
	}
	if f, ok := doc.Entities["authState.user"]; !ok || f.Type != "object" {
		t.Errorf("entities = %v, want authState.user without the domain prefix", doc.Entities)
	}
	if f, ok := doc.Intents["loginSuccess"]; !ok || f.Type != "event" || f.Source != "heuristic" {
		t.Errorf("intents = %v", doc.Intents)
	}
}

func TestWriteAll_HoldsBackFlaggedProposals(t *testing.T) {
	dir := t.TempDir()
	g := New(dir)

	flagged := authProposal()
	flagged.DomainName = "cart"
	flagged.NeedsReview = true

	written, err := g.WriteAll([]analysis.SchemaProposal{authProposal(), flagged})
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 1 || filepath.Base(written[0]) != "auth.schema.yaml" {
		t.Fatalf("written = %v, want only the accepted proposal", written)
	}
	if _, err := os.Stat(filepath.Join(dir, "cart.schema.yaml")); !os.IsNotExist(err) {
		t.Error("flagged proposal must not reach disk before review")
	}
}

func TestWriteOpenAPI_HoldsBackFlaggedProposals(t *testing.T) {
	dir := t.TempDir()
	g := New(dir)

	flagged := authProposal()
	flagged.NeedsReview = true

	if _, err := g.WriteOpenAPI(context.Background(), []analysis.SchemaProposal{flagged}); err == nil {
		t.Error("expected an error when every proposal is still under review")
	}
}

func TestWriteAll_BacksUpExistingFile(t *testing.T) {
	dir := t.TempDir()
	g := New(dir)

	path := filepath.Join(dir, "auth.schema.yaml")
	if err := os.WriteFile(path, []byte("domain: stale\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := g.WriteAll([]analysis.SchemaProposal{authProposal()}); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var backup string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".bak") {
			backup = filepath.Join(dir, e.Name())
		}
	}
	if backup == "" {
		t.Fatal("no backup file next to the replaced schema")
	}
	data, err := os.ReadFile(backup)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "domain: stale\n" {
		t.Errorf("backup holds %q, want the pre-write content", data)
	}
}

func TestWriteAll_RollsBackOnFailure(t *testing.T) {
	dir := t.TempDir()
	g := New(dir)

	authPath := filepath.Join(dir, "auth.schema.yaml")
	if err := os.WriteFile(authPath, []byte("domain: stale\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// a directory where the second file should go forces the batch to fail
	if err := os.MkdirAll(filepath.Join(dir, "cart.schema.yaml"), 0o755); err != nil {
		t.Fatal(err)
	}

	cart := authProposal()
	cart.DomainName = "cart"
	written, err := g.WriteAll([]analysis.SchemaProposal{authProposal(), cart})
	if err == nil {
		t.Fatal("expected an error from the unwritable second file")
	}
	if written != nil {
		t.Errorf("written = %v, want nil after rollback", written)
	}

	data, err := os.ReadFile(authPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "domain: stale\n" {
		t.Errorf("auth schema holds %q, want the pre-run content restored", data)
	}
}

func TestSectionMap_StripsDomainPrefix(t *testing.T) {
	fields := []analysis.SchemaFieldProposal{
		{Path: "cart.state.items", Type: "array", Confidence: 0.6, Source: analysis.FieldFromHeuristic},
		{Path: "cart.state.total", Type: "number", Confidence: 0.6, Source: analysis.FieldFromHeuristic},
	}
	m := sectionMap("cart", "state", fields)
	if len(m) != 2 {
		t.Fatalf("len = %d", len(m))
	}
	if _, ok := m["items"]; !ok {
		t.Errorf("keys = %v", sortedKeys(m))
	}
	if sectionMap("cart", "state", nil) != nil {
		t.Error("empty section should render as absent, not as an empty map")
	}
}

func TestWriteOpenAPI(t *testing.T) {
	dir := t.TempDir()
	g := New(dir)

	path, err := g.WriteOpenAPI(context.Background(), []analysis.SchemaProposal{authProposal()})
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "AuthAuthState") {
		t.Errorf("document does not name the AuthAuthState component:\n%s", data)
	}
}

func TestExportName(t *testing.T) {
	cases := map[string]string{
		"auth":          "Auth",
		"shopping-cart": "ShoppingCart",
		"user_profile":  "UserProfile",
		"a.b":           "AB",
	}
	for in, want := range cases {
		if got := exportName(in); got != want {
			t.Errorf("exportName(%q) = %q, want %q", in, got, want)
		}
	}
}
