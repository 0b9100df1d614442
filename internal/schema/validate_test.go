package schema

import (
	"testing"

	"boundary/internal/analysis"
)

func proposal(domain string, intents ...analysis.SchemaFieldProposal) analysis.SchemaProposal {
	return analysis.SchemaProposal{
		ID:         "p-" + domain,
		DomainID:   "d-" + domain,
		DomainName: domain,
		Intents:    intents,
	}
}

func intent(path string, confidence float64) analysis.SchemaFieldProposal {
	return analysis.SchemaFieldProposal{
		Path: path, Type: "command",
		Source: analysis.FieldFromHeuristic, Confidence: confidence,
	}
}

func TestValidateSchemaProposal_Empty(t *testing.T) {
	p := proposal("auth")
	v := ValidateSchemaProposal(&p)
	if v.Valid {
		t.Error("empty proposal must be invalid")
	}
}

func TestValidateSchemaProposal_PathOutsideNamespace(t *testing.T) {
	p := proposal("auth", intent("cart.intents.addItem", 0.9))
	v := ValidateSchemaProposal(&p)
	if v.Valid {
		t.Error("foreign path must be invalid")
	}
}

func TestValidateSchemaProposal_DuplicatePath(t *testing.T) {
	p := proposal("auth",
		intent("auth.intents.login", 0.9),
		intent("auth.intents.login", 0.5),
	)
	v := ValidateSchemaProposal(&p)
	if v.Valid {
		t.Error("duplicate path must be invalid")
	}
}

func TestMergeSchemaProposals_HighestConfidenceWins(t *testing.T) {
	a := proposal("auth", intent("auth.intents.login", 0.6))
	b := proposal("auth", intent("auth.intents.login", 0.9), intent("auth.intents.logout", 0.7))

	merged, v := MergeSchemaProposals([]analysis.SchemaProposal{a, b})
	if !v.Valid {
		t.Fatalf("merge invalid: %v", v.Errors)
	}
	if len(merged.Intents) != 2 {
		t.Fatalf("intents = %v", merged.Intents)
	}
	for _, f := range merged.Intents {
		if f.Path == "auth.intents.login" && f.Confidence != 0.9 {
			t.Errorf("login confidence = %v, want 0.9", f.Confidence)
		}
	}
}

func TestMergeSchemaProposals_NeedsReviewIsOr(t *testing.T) {
	a := proposal("auth", intent("auth.intents.login", 0.9))
	b := proposal("auth", intent("auth.intents.logout", 0.9))
	b.NeedsReview = true
	b.ReviewNotes = []string{"held back"}

	merged, v := MergeSchemaProposals([]analysis.SchemaProposal{a, b})
	if !v.Valid {
		t.Fatalf("merge invalid: %v", v.Errors)
	}
	if !merged.NeedsReview {
		t.Error("needsReview must OR across inputs")
	}
	if len(merged.ReviewNotes) != 1 || merged.ReviewNotes[0] != "held back" {
		t.Errorf("notes = %v", merged.ReviewNotes)
	}
}

func TestMergeSchemaProposals_CrossDomainRejected(t *testing.T) {
	a := proposal("auth", intent("auth.intents.login", 0.9))
	b := proposal("cart", intent("cart.intents.addItem", 0.9))

	merged, v := MergeSchemaProposals([]analysis.SchemaProposal{a, b})
	if merged != nil || v.Valid {
		t.Error("cross-domain merge must fail as a value")
	}
}

func TestMergeSchemaProposals_EmptySetIsFailureValue(t *testing.T) {
	merged, v := MergeSchemaProposals(nil)
	if merged != nil {
		t.Error("empty merge must return no proposal")
	}
	if v.Valid || len(v.Errors) == 0 {
		t.Error("empty merge must carry a structural error")
	}
}

func TestMergeSchemaProposals_Idempotent(t *testing.T) {
	a := proposal("auth", intent("auth.intents.login", 0.9), intent("auth.intents.logout", 0.7))

	once, v1 := MergeSchemaProposals([]analysis.SchemaProposal{a})
	if !v1.Valid {
		t.Fatalf("first merge invalid: %v", v1.Errors)
	}
	twice, v2 := MergeSchemaProposals([]analysis.SchemaProposal{*once})
	if !v2.Valid {
		t.Fatalf("second merge invalid: %v", v2.Errors)
	}
	if len(once.Intents) != len(twice.Intents) || once.Confidence != twice.Confidence {
		t.Errorf("merge not idempotent: %+v vs %+v", once, twice)
	}
}
