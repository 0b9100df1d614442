package review

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"boundary/internal/analysis"
	"boundary/internal/relations"
)

func testConflicts() []analysis.DomainConflict {
	return []analysis.DomainConflict{{
		ID:          "c1",
		Type:        analysis.ConflictOwnership,
		Domains:     []string{"d-auth", "d-cart"},
		File:        "shared.ts",
		Description: "shared.ts claimed by auth and cart",
		SuggestedResolutions: []analysis.SuggestedResolution{
			{Action: "reassign_file", Target: "d-auth"},
			{Action: "reassign_file", Target: "d-cart"},
		},
	}}
}

func testProposals() []analysis.SchemaProposal {
	return []analysis.SchemaProposal{
		{ID: "p1", DomainName: "auth", Confidence: 0.9},
		{ID: "p2", DomainName: "cart", Confidence: 0.3, NeedsReview: true, ReviewNotes: []string{"low confidence"}},
	}
}

func testAmbiguities() []analysis.AmbiguousPattern {
	return []analysis.AmbiguousPattern{{
		File:        "shared.ts",
		Reason:      analysis.AmbiguityMultiCandidate,
		Description: "file claimed by more than one candidate",
		Candidates:  []string{"auth", "cart"},
	}}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModel_PickResolutionFlow(t *testing.T) {
	m := initialModel(testConflicts(), nil, nil)
	if len(m.conflictList.Items()) != 1 {
		t.Fatalf("expected 1 conflict item, got %d", len(m.conflictList.Items()))
	}

	// cycle to the second suggestion, then pick it
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	state := updated.(model)
	if state.choice["c1"] != 1 {
		t.Fatalf("expected suggestion cursor 1, got %d", state.choice["c1"])
	}

	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyEnter})
	state = updated.(model)
	res, ok := state.picked["c1"]
	if !ok {
		t.Fatal("expected a picked resolution")
	}
	if res.Action != "reassign_file" || res.Target != "d-cart" {
		t.Fatalf("picked = %+v", res)
	}

	// cycling again clears the pick
	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeySpace})
	state = updated.(model)
	if _, ok := state.picked["c1"]; ok {
		t.Error("cycling should clear the picked resolution")
	}

	updated, _ = state.Update(keyRune('w'))
	state = updated.(model)
	if !state.committed {
		t.Error("expected committed after w")
	}
}

func TestModel_QuitDoesNotCommit(t *testing.T) {
	m := initialModel(testConflicts(), nil, nil)
	updated, _ := m.Update(keyRune('q'))
	if updated.(model).committed {
		t.Error("q must not commit")
	}
}

func TestModel_PanelCycleAndAccept(t *testing.T) {
	m := initialModel(testConflicts(), testProposals(), testAmbiguities())

	// only the flagged proposal is listed
	if len(m.proposalList.Items()) != 1 {
		t.Fatalf("expected 1 flagged proposal item, got %d", len(m.proposalList.Items()))
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	state := updated.(model)
	if state.mode != panelProposals {
		t.Fatalf("expected proposals panel after tab, got %v", state.mode)
	}

	updated, _ = state.Update(keyRune('a'))
	state = updated.(model)
	if !state.accepted["p2"] {
		t.Error("expected flagged proposal accepted")
	}
	if state.accepted["p1"] {
		t.Error("unflagged proposal must not be touched")
	}

	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyTab})
	state = updated.(model)
	if state.mode != panelAmbiguities {
		t.Fatalf("expected ambiguities panel, got %v", state.mode)
	}

	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyEnter})
	state = updated.(model)
	if !state.acked[0] {
		t.Error("expected ambiguity acknowledged")
	}

	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyTab})
	state = updated.(model)
	if state.mode != panelConflicts {
		t.Fatalf("expected conflicts panel after full cycle, got %v", state.mode)
	}
}

func TestModel_RenameFlow(t *testing.T) {
	conflicts := []analysis.DomainConflict{{
		ID:          "c1",
		Type:        analysis.ConflictNaming,
		Domains:     []string{"d-auth", "d-user-auth"},
		Description: "auth and user-auth normalize identically",
		SuggestedResolutions: []analysis.SuggestedResolution{
			{Action: "rename_domain", Target: "d-user-auth"},
		},
	}}
	m := initialModel(conflicts, nil, nil)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	state := updated.(model)
	if state.renaming != "c1" {
		t.Fatal("expected rename input to open")
	}

	for _, r := range "identity" {
		updated, _ = state.Update(keyRune(r))
		state = updated.(model)
	}
	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyEnter})
	state = updated.(model)

	res, ok := state.picked["c1"]
	if !ok {
		t.Fatal("expected a picked resolution after rename")
	}
	if res.Action != "rename_domain" || res.Target != "d-user-auth" || res.NewName != "identity" {
		t.Fatalf("picked = %+v", res)
	}
}

func TestApply(t *testing.T) {
	domains := []analysis.DomainSummary{
		{ID: "d-auth", Name: "auth", SourceFiles: []string{"shared.ts", "a.ts"}},
		{ID: "d-cart", Name: "cart", SourceFiles: []string{"shared.ts", "b.ts"}},
	}
	conflicts := testConflicts()
	proposals := testProposals()
	ambiguities := testAmbiguities()

	out := Outcome{
		Committed:    true,
		Resolutions:  []relations.Resolution{{ConflictID: "c1", Action: "reassign_file", Target: "d-auth"}},
		Accepted:     map[string]bool{"p2": true},
		Acknowledged: map[int]bool{0: true},
	}

	domains, conflicts, proposals, ambiguities, err := Apply(out, domains, conflicts, proposals, ambiguities)
	if err != nil {
		t.Fatal(err)
	}
	if len(conflicts) != 0 {
		t.Errorf("resolved conflict must be retired, got %d", len(conflicts))
	}
	for _, d := range domains {
		if d.ID == "d-cart" {
			for _, f := range d.SourceFiles {
				if f == "shared.ts" {
					t.Error("reassigned file still in the losing domain")
				}
			}
		}
	}
	for _, p := range proposals {
		if p.ID == "p2" && p.NeedsReview {
			t.Error("accepted proposal still flagged")
		}
	}
	if len(ambiguities) != 0 {
		t.Errorf("acknowledged ambiguity must be removed, got %d", len(ambiguities))
	}
}

func TestApply_UncommittedChangesNothing(t *testing.T) {
	proposals := testProposals()
	ambiguities := testAmbiguities()

	_, _, proposals, ambiguities, err := Apply(Outcome{Committed: false,
		Accepted:     map[string]bool{"p2": true},
		Acknowledged: map[int]bool{0: true},
	}, nil, nil, proposals, ambiguities)
	if err != nil {
		t.Fatal(err)
	}
	if !proposals[1].NeedsReview {
		t.Error("uncommitted session must not accept proposals")
	}
	if len(ambiguities) != 1 {
		t.Error("uncommitted session must not drop ambiguities")
	}
}
