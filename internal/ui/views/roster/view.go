package roster

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	examdto "examclock/internal/modules/exam/dto"
	"examclock/internal/ui/theme"
)

type subjectItem struct {
	subject examdto.SubjectOutput
}

func (i subjectItem) Title() string { return i.subject.DisplayName }

func (i subjectItem) Description() string {
	run := 0
	for _, section := range i.subject.Sections {
		if section.Run {
			run++
		}
	}
	desc := fmt.Sprintf("#%d  %s  %d/%d sections", i.subject.ID, i.subject.Pool, run, len(i.subject.Sections))
	if i.subject.Completed {
		desc += "  done"
	}
	return desc
}

func (i subjectItem) FilterValue() string { return i.subject.DisplayName }

// Model lists registered subjects with a section detail pane.
type Model struct {
	list    list.Model
	detail  viewport.Model
	byID    map[int64]examdto.SubjectOutput
	width   int
	height  int
	hasData bool
}

func New() Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Subjects"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text).Padding(1)

	return Model{list: l, detail: vp, byID: map[int64]examdto.SubjectOutput{}}
}

// SetSubjects replaces the list contents, keeping the cursor on the same
// subject when it still exists.
func (m *Model) SetSubjects(subjects []examdto.SubjectOutput) tea.Cmd {
	prev, hadPrev := m.SelectedSubjectID()
	items := make([]list.Item, len(subjects))
	m.byID = make(map[int64]examdto.SubjectOutput, len(subjects))
	for i, subject := range subjects {
		items[i] = subjectItem{subject: subject}
		m.byID[subject.ID] = subject
	}
	cmd := m.list.SetItems(items)
	if hadPrev {
		for i, subject := range subjects {
			if subject.ID == prev {
				m.list.Select(i)
				break
			}
		}
	}
	m.hasData = true
	m.refreshDetail()
	return cmd
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		m.height = size.Height
		m.resize()
	}
	var cmd tea.Cmd
	prev := m.list.Index()
	m.list, cmd = m.list.Update(msg)
	if m.list.Index() != prev {
		m.refreshDetail()
	}
	return m, cmd
}

func (m Model) View() string {
	listW := m.width * 4 / 10
	detailW := m.width - listW
	listPane := lipgloss.NewStyle().Width(listW).Height(m.height).Render(m.list.View())
	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(max(detailW-2, 1)).
		Height(max(m.height-2, 1)).
		Render(m.detail.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

func (m Model) SelectedSubjectID() (int64, bool) {
	if item, ok := m.list.SelectedItem().(subjectItem); ok {
		return item.subject.ID, true
	}
	return 0, false
}

// Filtering reports whether the list's search filter is open, in which case
// global keys must yield.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m *Model) resize() {
	listW := m.width * 4 / 10
	detailW := m.width - listW
	m.list.SetSize(listW, m.height)
	m.detail.Width = max(detailW-4, 1)
	m.detail.Height = max(m.height-4, 1)
}

func (m *Model) refreshDetail() {
	m.detail.SetContent(m.renderDetail())
}

func (m Model) renderDetail() string {
	id, ok := m.SelectedSubjectID()
	if !ok {
		if !m.hasData {
			return theme.Muted.Render("Loading subjects…")
		}
		return theme.Muted.Render("No subjects yet. Try  :subject:add HL Mathematics")
	}
	s := m.byID[id]
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(s.DisplayName) + "\n\n")
	sb.WriteString(theme.Muted.Render("id:     ") + fmt.Sprintf("%d", s.ID) + "\n")
	sb.WriteString(theme.Muted.Render("pool:   ") + s.Pool + "\n")
	if s.TimerID != "" {
		sb.WriteString(theme.Muted.Render("timer:  ") + s.TimerID + "\n")
	}
	sb.WriteString("\n")
	if len(s.Sections) == 0 {
		sb.WriteString(theme.Muted.Render("no sections; use :sections:set . Paper 1=1h30m") + "\n")
	}
	for _, section := range s.Sections {
		marker := theme.Muted.Render("·")
		switch {
		case section.Run:
			marker = lipgloss.NewStyle().Foreground(theme.Green).Render("✓")
		case section.InProgress:
			marker = theme.Hot.Render("▶")
		}
		sb.WriteString(fmt.Sprintf("%s %s  %s\n", marker, section.Label, theme.Muted.Render(section.DurationText)))
	}
	return sb.String()
}
