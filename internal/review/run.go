package review

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"boundary/internal/analysis"
	"boundary/internal/relations"
)

// Run blocks in the terminal UI until the user commits or quits, then
// returns what they decided. A quit without commit returns an Outcome
// with Committed false and nothing else set.
func Run(conflicts []analysis.DomainConflict, proposals []analysis.SchemaProposal, ambiguities []analysis.AmbiguousPattern) (Outcome, error) {
	m := initialModel(conflicts, proposals, ambiguities)
	p := tea.NewProgram(m, tea.WithAltScreen())

	final, err := p.Run()
	if err != nil {
		return Outcome{}, fmt.Errorf("review session: %w", err)
	}
	fm, ok := final.(model)
	if !ok {
		return Outcome{}, fmt.Errorf("review session ended in unexpected state")
	}
	if !fm.committed {
		return Outcome{Committed: false}, nil
	}

	out := Outcome{Committed: true, Accepted: fm.accepted, Acknowledged: fm.acked}
	for _, res := range fm.picked {
		out.Resolutions = append(out.Resolutions, res)
	}
	return out, nil
}

// Apply folds the committed outcome back into the run: resolutions
// reshape the summaries and retire their conflict records, accepted
// proposals drop their review flag, acknowledged ambiguities are
// removed.
func Apply(out Outcome, domains []analysis.DomainSummary, conflicts []analysis.DomainConflict, proposals []analysis.SchemaProposal, ambiguities []analysis.AmbiguousPattern) ([]analysis.DomainSummary, []analysis.DomainConflict, []analysis.SchemaProposal, []analysis.AmbiguousPattern, error) {
	if !out.Committed {
		return domains, conflicts, proposals, ambiguities, nil
	}
	var err error
	for _, res := range out.Resolutions {
		domains, conflicts, err = relations.ApplyResolution(domains, conflicts, res)
		if err != nil {
			return domains, conflicts, proposals, ambiguities, err
		}
	}
	for i := range proposals {
		if out.Accepted[proposals[i].ID] {
			proposals[i].NeedsReview = false
		}
	}
	kept := make([]analysis.AmbiguousPattern, 0, len(ambiguities))
	for i, a := range ambiguities {
		if !out.Acknowledged[i] {
			kept = append(kept, a)
		}
	}
	return domains, conflicts, proposals, kept, nil
}
