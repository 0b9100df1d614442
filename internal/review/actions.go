package review

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"boundary/internal/analysis"
	"boundary/internal/relations"
)

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	if m.renaming != "" {
		switch msg.String() {
		case "enter":
			name := m.input.Value()
			if name != "" {
				m.picked[m.renaming] = relations.Resolution{
					ConflictID: m.renaming,
					Action:     "rename_domain",
					Target:     m.renameTarget(m.renaming),
					NewName:    name,
				}
				m.status = fmt.Sprintf("Will rename to %q", name)
			}
			m.renaming = ""
			m.input.Blur()
			m.refreshItems()
			return m, nil
		case "esc":
			m.renaming = ""
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.committed = false
		return m, tea.Quit
	case "w":
		m.committed = true
		return m, tea.Quit
	case "tab":
		m.mode = (m.mode + 1) % 3
		return m, nil
	}

	if m.mode == panelConflicts {
		switch msg.String() {
		case " ":
			if c, ok := m.selectedConflict(); ok && len(c.SuggestedResolutions) > 0 {
				m.choice[c.ID] = (m.choice[c.ID] + 1) % len(c.SuggestedResolutions)
				delete(m.picked, c.ID)
				m.refreshItems()
			}
			return m, nil
		case "enter":
			if c, ok := m.selectedConflict(); ok {
				res := resolutionFor(c, m.choice[c.ID])
				if res.Action == "rename_domain" {
					m.renaming = c.ID
					m.input.SetValue("")
					m.input.Focus()
					return m, textinput.Blink
				}
				m.picked[c.ID] = res
				m.status = fmt.Sprintf("Picked %s for %s", res.Action, c.ID)
				m.refreshItems()
			}
			return m, nil
		case "u":
			if c, ok := m.selectedConflict(); ok {
				delete(m.picked, c.ID)
				m.status = fmt.Sprintf("Cleared resolution for %s", c.ID)
				m.refreshItems()
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.conflictList, cmd = m.conflictList.Update(msg)
		return m, cmd
	}

	if m.mode == panelProposals {
		switch msg.String() {
		case "enter", "a":
			if p, ok := m.flaggedProposal(m.proposalList.Index()); ok {
				m.accepted[p.ID] = !m.accepted[p.ID]
				m.refreshItems()
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.proposalList, cmd = m.proposalList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "enter", "a":
		if idx := m.ambiguityList.Index(); idx >= 0 && idx < len(m.ambiguities) {
			m.acked[idx] = !m.acked[idx]
			m.refreshItems()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.ambiguityList, cmd = m.ambiguityList.Update(msg)
	return m, cmd
}

func (m *model) selectedConflict() (*analysis.DomainConflict, bool) {
	idx := m.conflictList.Index()
	if idx < 0 || idx >= len(m.conflicts) {
		return nil, false
	}
	return &m.conflicts[idx], true
}

// resolutionFor translates the highlighted suggestion into the
// concrete resolution the analyzer applies. Suggestions with no
// structural effect (keep_both, acknowledge) still clear the record.
func resolutionFor(c *analysis.DomainConflict, choice int) relations.Resolution {
	res := relations.Resolution{ConflictID: c.ID}
	if choice < 0 || choice >= len(c.SuggestedResolutions) {
		return res
	}
	s := c.SuggestedResolutions[choice]
	res.Action = s.Action
	res.Target = s.Target
	return res
}

// renameTarget recovers the domain id the highlighted rename
// suggestion points at.
func (m *model) renameTarget(conflictID string) string {
	for i := range m.conflicts {
		if m.conflicts[i].ID != conflictID {
			continue
		}
		c := &m.conflicts[i]
		idx := m.choice[c.ID]
		if idx >= 0 && idx < len(c.SuggestedResolutions) {
			return c.SuggestedResolutions[idx].Target
		}
	}
	return ""
}
