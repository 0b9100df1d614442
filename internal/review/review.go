// Package review is the terminal surface for the human-in-the-loop
// gate: conflicts pick one of their suggested resolutions, flagged
// proposals get accepted or left pending, ambiguous patterns get
// acknowledged. Nothing is applied until the session is committed
// with "w".
package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"boundary/internal/analysis"
	"boundary/internal/relations"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	conflictStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	acceptedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type panelMode int

const (
	panelConflicts panelMode = iota
	panelProposals
	panelAmbiguities
)

// Outcome is what the session produced: resolutions picked per
// conflict, proposal ids accepted despite their flags, acknowledged
// ambiguity indexes, and whether the user committed at all.
type Outcome struct {
	Resolutions  []relations.Resolution
	Accepted     map[string]bool
	Acknowledged map[int]bool
	Committed    bool
}

type model struct {
	conflictList  list.Model
	proposalList  list.Model
	ambiguityList list.Model
	mode          panelMode

	conflicts   []analysis.DomainConflict
	proposals   []analysis.SchemaProposal
	ambiguities []analysis.AmbiguousPattern

	picked   map[string]relations.Resolution // conflict id -> chosen resolution
	choice   map[string]int                  // conflict id -> suggestion cursor
	accepted map[string]bool                 // proposal id -> accepted
	acked    map[int]bool                    // ambiguity index -> acknowledged

	renaming string // conflict id awaiting a new name, "" otherwise
	input    textinput.Model

	committed bool
	status    string
}

func initialModel(conflicts []analysis.DomainConflict, proposals []analysis.SchemaProposal, ambiguities []analysis.AmbiguousPattern) model {
	conflictList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	conflictList.Title = "Domain Conflicts"
	conflictList.SetShowStatusBar(false)
	conflictList.SetFilteringEnabled(true)

	proposalList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	proposalList.Title = "Flagged Proposals"
	proposalList.SetShowStatusBar(false)
	proposalList.SetFilteringEnabled(true)

	ambiguityList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	ambiguityList.Title = "Ambiguous Patterns"
	ambiguityList.SetShowStatusBar(false)
	ambiguityList.SetFilteringEnabled(true)

	input := textinput.New()
	input.Placeholder = "new domain name"
	input.CharLimit = 64

	m := model{
		conflictList:  conflictList,
		proposalList:  proposalList,
		ambiguityList: ambiguityList,
		input:         input,
		mode:          panelConflicts,
		conflicts:     conflicts,
		proposals:     proposals,
		ambiguities:   ambiguities,
		picked:        map[string]relations.Resolution{},
		choice:        map[string]int{},
		accepted:      map[string]bool{},
		acked:         map[int]bool{},
	}
	m.refreshItems()
	return m
}

func (m *model) refreshItems() {
	items := make([]list.Item, 0, len(m.conflicts))
	for _, c := range m.conflicts {
		title := fmt.Sprintf("%s: %s", c.Type, strings.Join(c.Domains, ", "))
		desc := c.Description
		if res, ok := m.picked[c.ID]; ok {
			desc = acceptedStyle.Render("-> "+res.Action) + " " + desc
		} else if len(c.SuggestedResolutions) > 0 {
			idx := m.choice[c.ID]
			desc = fmt.Sprintf("[%d/%d %s] %s", idx+1, len(c.SuggestedResolutions), c.SuggestedResolutions[idx].Action, desc)
		}
		items = append(items, item{title: title, desc: desc})
	}
	m.conflictList.SetItems(items)

	proposalItems := make([]list.Item, 0, len(m.proposals))
	for _, p := range m.proposals {
		if !p.NeedsReview {
			continue
		}
		state := pendingStyle.Render("pending")
		if m.accepted[p.ID] {
			state = acceptedStyle.Render("accepted")
		}
		proposalItems = append(proposalItems, item{
			title: fmt.Sprintf("%s (%.2f) %s", p.DomainName, p.Confidence, state),
			desc:  strings.Join(p.ReviewNotes, "; "),
		})
	}
	m.proposalList.SetItems(proposalItems)

	ambiguityItems := make([]list.Item, 0, len(m.ambiguities))
	for i, a := range m.ambiguities {
		state := pendingStyle.Render("pending")
		if m.acked[i] {
			state = acceptedStyle.Render("acknowledged")
		}
		desc := a.Description
		if len(a.Candidates) > 0 {
			desc = fmt.Sprintf("%s (claimed by %s)", desc, strings.Join(a.Candidates, ", "))
		}
		ambiguityItems = append(ambiguityItems, item{
			title: fmt.Sprintf("%s: %s %s", a.Reason, a.File, state),
			desc:  desc,
		})
	}
	m.ambiguityList.SetItems(ambiguityItems)
}

// flaggedProposal maps the proposal list index back to the proposal,
// skipping the ones that never needed review.
func (m *model) flaggedProposal(idx int) (*analysis.SchemaProposal, bool) {
	n := 0
	for i := range m.proposals {
		if !m.proposals[i].NeedsReview {
			continue
		}
		if n == idx {
			return &m.proposals[i], true
		}
		n++
	}
	return nil, false
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := msg.Width - h
		height := msg.Height - v - 8
		if height < 5 {
			height = 5
		}
		m.conflictList.SetSize(width, height)
		m.proposalList.SetSize(width, height)
		m.ambiguityList.SetSize(width, height)
	}

	var cmd tea.Cmd
	switch m.mode {
	case panelConflicts:
		m.conflictList, cmd = m.conflictList.Update(msg)
	case panelProposals:
		m.proposalList, cmd = m.proposalList.Update(msg)
	default:
		m.ambiguityList, cmd = m.ambiguityList.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	unresolved := 0
	for _, c := range m.conflicts {
		if _, ok := m.picked[c.ID]; !ok {
			unresolved++
		}
	}
	pending := 0
	for _, p := range m.proposals {
		if p.NeedsReview && !m.accepted[p.ID] {
			pending++
		}
	}
	unacked := 0
	for i := range m.ambiguities {
		if !m.acked[i] {
			unacked++
		}
	}

	var summary string
	if unresolved == 0 && pending == 0 && unacked == 0 {
		summary = acceptedStyle.Render("All items resolved")
	} else {
		summary = fmt.Sprintf("%s | %s | %s",
			conflictStyle.Render(fmt.Sprintf("%d unresolved conflicts", unresolved)),
			pendingStyle.Render(fmt.Sprintf("%d pending proposals", pending)),
			pendingStyle.Render(fmt.Sprintf("%d unacknowledged patterns", unacked)))
	}

	header := fmt.Sprintf("%s\n%s\n", titleStyle("Domain Review"), summary)
	help := statusStyle.Render("tab: switch panel | space: cycle resolution | enter: pick/accept/acknowledge | w: commit | q: quit without applying")

	body := m.conflictList.View()
	switch m.mode {
	case panelProposals:
		body = m.proposalList.View()
	case panelAmbiguities:
		body = m.ambiguityList.View()
	}
	if m.renaming != "" {
		body += "\n\n" + pendingStyle.Render("Rename domain: ") + m.input.View()
	}
	if m.status != "" {
		body += "\n\n" + statusStyle.Render(m.status)
	}

	return docStyle.Render(header + "\n" + help + "\n\n" + body)
}
