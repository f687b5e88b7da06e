package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	examdto "examclock/internal/modules/exam/dto"
	"examclock/internal/ui/components"
	"examclock/internal/ui/theme"
	boardview "examclock/internal/ui/views/board"
	rosterview "examclock/internal/ui/views/roster"
)

// ExamPort is everything the operator screen needs from the exam module.
type ExamPort interface {
	AddSubject(ctx context.Context, name, level string) (examdto.SubjectOutput, error)
	SetSections(ctx context.Context, subjectID int64, raw string) (examdto.SubjectOutput, error)
	RenameSubject(ctx context.Context, subjectID int64, name string) (examdto.SubjectOutput, error)
	ToggleLevel(ctx context.Context, subjectID int64) (examdto.SubjectOutput, error)
	RemoveSubject(ctx context.Context, subjectID int64) error
	ListSubjects(ctx context.Context) ([]examdto.SubjectOutput, error)
	ImportRoster(ctx context.Context, path string) (examdto.ImportOutput, error)

	StartAll(ctx context.Context) (examdto.BoardOutput, error)
	StartTimer(ctx context.Context, timerID string) (examdto.BoardOutput, error)
	StartAt(ctx context.Context, timerID, clock string, now time.Time) (examdto.BoardOutput, error)
	PauseAll(ctx context.Context) (examdto.BoardOutput, error)
	ResumeAll(ctx context.Context) (examdto.BoardOutput, error)
	StopAll(ctx context.Context) (examdto.BoardOutput, error)
	StopTimer(ctx context.Context, timerID string) (examdto.BoardOutput, error)
	Advance(ctx context.Context) (examdto.BoardOutput, error)
	Tick(ctx context.Context) (examdto.BoardOutput, error)
	Board(ctx context.Context) (examdto.BoardOutput, error)
}

type tabID int

const (
	tabBoard tabID = iota
	tabRoster
	tabCount
)

var tabLabels = [tabCount]string{"Board", "Roster"}

type tickMsg time.Time

type boardMsg struct {
	action string
	board  examdto.BoardOutput
	err    error
}

type subjectsMsg struct {
	subjects []examdto.SubjectOutput
	err      error
}

type subjectChangedMsg struct {
	action  string
	subject examdto.SubjectOutput
	err     error
}

type importedMsg struct {
	out examdto.ImportOutput
	err error
}

type rosterChangedMsg struct{}

type keyMap struct {
	Tab      key.Binding
	Help     key.Binding
	Palette  key.Binding
	Quit     key.Binding
	Start    key.Binding
	StartOne key.Binding
	Pause    key.Binding
	Resume   key.Binding
	Stop     key.Binding
	Advance  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "board/roster")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:  key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Start:    key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "start all")),
		StartOne: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start selected")),
		Pause:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause all")),
		Resume:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resume all")),
		Stop:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop all")),
		Advance:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "advance")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Pause, k.Resume, k.Advance, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.StartOne, k.Pause, k.Resume},
		{k.Stop, k.Advance},
		{k.Tab, k.Palette, k.Help, k.Quit},
	}
}

// Model is the root Bubble Tea model: header clock, tab routing, the command
// palette and the periodic tick that drives every timer.
type Model struct {
	exam          ExamPort
	interval      time.Duration
	rosterPath    string
	rosterChanges <-chan struct{}
	now           func() time.Time

	boardView  boardview.Model
	rosterView rosterview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	clock     string
	status    string
	alert     bool
	width     int
	height    int
}

type Option func(*Model)

// WithRosterWatch re-imports rosterPath whenever changes delivers a value.
func WithRosterWatch(changes <-chan struct{}) Option {
	return func(m *Model) { m.rosterChanges = changes }
}

func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

func NewModel(exam ExamPort, interval time.Duration, rosterPath string, opts ...Option) Model {
	if interval <= 0 {
		interval = time.Second
	}
	m := Model{
		exam:       exam,
		interval:   interval,
		rosterPath: rosterPath,
		now:        time.Now,
		boardView:  boardview.New(),
		rosterView: rosterview.New(),
		activeTab:  tabBoard,
		keys:       defaultKeys(),
		help:       help.New(),
		palette:    components.NewPalette(),
		status:     "ready",
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.boardCmd("", m.exam.Board),
		m.loadSubjectsCmd(),
		m.tickCmd(),
		m.waitRosterCmd(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.boardCmd("", m.exam.Tick), m.tickCmd())

	case boardMsg:
		if msg.err != nil {
			m.setStatus(msg.action+": "+msg.err.Error(), true)
			return m, nil
		}
		m.boardView.SetBoard(msg.board)
		m.clock = msg.board.ClockText
		switch {
		case len(msg.board.Notices) > 0:
			m.setStatus(msg.board.Notices[len(msg.board.Notices)-1], true)
			cmds = append(cmds, m.loadSubjectsCmd())
		case msg.action != "":
			m.setStatus(fmt.Sprintf("%s: %d timer(s)", msg.action, msg.board.Affected), false)
			cmds = append(cmds, m.loadSubjectsCmd())
		}
		return m, tea.Batch(cmds...)

	case subjectsMsg:
		if msg.err != nil {
			m.setStatus("subjects: "+msg.err.Error(), true)
			return m, nil
		}
		return m, m.rosterView.SetSubjects(msg.subjects)

	case subjectChangedMsg:
		if msg.err != nil {
			m.setStatus(msg.action+": "+msg.err.Error(), true)
			return m, nil
		}
		label := msg.subject.DisplayName
		if label == "" {
			label = "done"
		}
		m.setStatus(msg.action+": "+label, false)
		return m, tea.Batch(m.loadSubjectsCmd(), m.boardCmd("", m.exam.Board))

	case importedMsg:
		if msg.err != nil {
			m.setStatus("roster import: "+msg.err.Error(), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("roster import: %d added, %d skipped, %d new timer(s)",
			len(msg.out.Created), len(msg.out.Skipped), msg.out.Timers), len(msg.out.Skipped) > 0)
		return m, tea.Batch(m.loadSubjectsCmd(), m.boardCmd("", m.exam.Board))

	case rosterChangedMsg:
		return m, tea.Batch(m.importCmd(m.rosterPath), m.waitRosterCmd())

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.setStatus("ready", false)
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.activeTab == tabRoster && m.rosterView.Filtering() {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil
		case key.Matches(msg, m.keys.Palette):
			return m, m.palette.Open()
		case key.Matches(msg, m.keys.Start):
			return m, m.boardCmd("start all", m.exam.StartAll)
		case key.Matches(msg, m.keys.Pause):
			return m, m.boardCmd("pause all", m.exam.PauseAll)
		case key.Matches(msg, m.keys.Resume):
			return m, m.boardCmd("resume all", m.exam.ResumeAll)
		case key.Matches(msg, m.keys.Stop):
			return m, m.boardCmd("stop all", m.exam.StopAll)
		case key.Matches(msg, m.keys.Advance):
			return m, m.boardCmd("advance", m.exam.Advance)
		case key.Matches(msg, m.keys.StartOne) && m.activeTab == tabBoard:
			if id, ok := m.boardView.SelectedTimerID(); ok {
				return m, m.boardCmd("start", func(ctx context.Context) (examdto.BoardOutput, error) {
					return m.exam.StartTimer(ctx, id)
				})
			}
			return m, nil
		}
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabBoard:
		m.boardView, tabCmd = m.boardView.Update(msg)
	case tabRoster:
		m.rosterView, tabCmd = m.rosterView.Update(msg)
	}
	cmds = append(cmds, tabCmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	header := m.renderHeader()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabRoster:
		content = m.rosterView.View()
	default:
		content = lipgloss.NewStyle().Height(contentH).Render(m.boardView.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func (m Model) renderHeader() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	left := "examclock  " + strings.Join(parts, theme.Muted.Render(" │ "))
	b := m.boardView.Board()
	info := fmt.Sprintf("idle %d  active %d", b.Idle, b.Active)
	if b.CanAdvance {
		info = theme.Warn.Render("advance ready") + "  " + info
	}
	right := info + "  " + theme.Title.Render(m.clock)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(left+strings.Repeat(" ", gap)+right) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.alert {
		left = theme.Hot.Render(m.status)
	}
	right := theme.Muted.Render("S:start  p:pause  r:resume  x:stop  a:advance  ::cmd  ?:help")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(left+strings.Repeat(" ", gap)+right)
}

func (m *Model) setStatus(text string, alert bool) {
	m.status = text
	m.alert = alert
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.boardView, _ = m.boardView.Update(sz)
	m.rosterView, _ = m.rosterView.Update(sz)
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) boardCmd(action string, op func(context.Context) (examdto.BoardOutput, error)) tea.Cmd {
	return func() tea.Msg {
		board, err := op(context.Background())
		return boardMsg{action: action, board: board, err: err}
	}
}

func (m Model) loadSubjectsCmd() tea.Cmd {
	return func() tea.Msg {
		subjects, err := m.exam.ListSubjects(context.Background())
		return subjectsMsg{subjects: subjects, err: err}
	}
}

func (m Model) subjectCmd(action string, op func(context.Context) (examdto.SubjectOutput, error)) tea.Cmd {
	return func() tea.Msg {
		subject, err := op(context.Background())
		return subjectChangedMsg{action: action, subject: subject, err: err}
	}
}

func (m Model) importCmd(path string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.exam.ImportRoster(context.Background(), path)
		return importedMsg{out: out, err: err}
	}
}

func (m Model) waitRosterCmd() tea.Cmd {
	if m.rosterChanges == nil {
		return nil
	}
	changes := m.rosterChanges
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return rosterChangedMsg{}
	}
}
