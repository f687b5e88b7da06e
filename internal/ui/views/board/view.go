package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	examdto "examclock/internal/modules/exam/dto"
	apperrors "examclock/internal/platform/errors"
	"examclock/internal/ui/theme"
)

const shortIDLen = 8

// Model renders one card per timer. It holds no ports; the app pushes every
// fresh board in through SetBoard.
type Model struct {
	board    examdto.BoardOutput
	bar      progress.Model
	selected int
	width    int
	height   int
}

func New() Model {
	bar := progress.New(
		progress.WithGradient(string(theme.Sapphire), string(theme.Lavender)),
		progress.WithoutPercentage(),
	)
	return Model{bar: bar}
}

func (m *Model) SetBoard(board examdto.BoardOutput) {
	m.board = board
	if m.selected >= len(board.Timers) {
		m.selected = len(board.Timers) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m Model) Board() examdto.BoardOutput { return m.board }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(m.width-8, 10)
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.board.Timers)-1 {
				m.selected++
			}
		}
	}
	return m, nil
}

// SelectedTimerID returns the timer under the cursor.
func (m Model) SelectedTimerID() (string, bool) {
	if m.selected < 0 || m.selected >= len(m.board.Timers) {
		return "", false
	}
	return m.board.Timers[m.selected].ID, true
}

// FindTimer resolves a timer id or an unambiguous id prefix.
func (m Model) FindTimer(prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		if id, ok := m.SelectedTimerID(); ok {
			return id, nil
		}
		return "", fmt.Errorf("%w: no timer selected", apperrors.ErrNotFound)
	}
	var found []string
	for _, timer := range m.board.Timers {
		if timer.ID == prefix {
			return timer.ID, nil
		}
		if strings.HasPrefix(timer.ID, prefix) {
			found = append(found, timer.ID)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: timer %q", apperrors.ErrNotFound, prefix)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%w: timer prefix %q is ambiguous", apperrors.ErrInvalidInput, prefix)
	}
}

func (m Model) View() string {
	if len(m.board.Timers) == 0 {
		msg := "No timers. Add subjects with sections, or import a roster."
		if m.board.Idle > 0 {
			msg = "Every subject has finished its sections."
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, theme.Muted.Render(msg))
	}
	cards := make([]string, 0, len(m.board.Timers))
	for i, timer := range m.board.Timers {
		cards = append(cards, m.renderCard(timer, i == m.selected))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func (m Model) renderCard(timer examdto.TimerOutput, selected bool) string {
	var sb strings.Builder
	id := timer.ID
	if len(id) > shortIDLen {
		id = id[:shortIDLen]
	}
	header := theme.Title.Render(timer.InfoText) + "  " +
		theme.StateStyle(timer.State).Render(strings.ToUpper(timer.State)) + "  " +
		theme.Muted.Render(id)
	if timer.ScheduledStart != nil {
		header += "  " + theme.Warn.Render("starts "+timer.ScheduledStart.Format("15:04"))
	}
	sb.WriteString(header + "\n")

	for _, member := range timer.Members {
		sb.WriteString(member.DisplayName + theme.Muted.Render("  "+member.SectionName) + "\n")
	}
	sb.WriteString(m.bar.ViewAs(timer.Percent/100) + "\n")

	remaining := theme.Clock.Render(timer.RemainingText)
	if timer.State == "finished" {
		remaining = theme.ClockDone.Render(timer.RemainingText)
	}
	line := fmt.Sprintf("%s %s   %s %s", theme.Muted.Render("elapsed"), timer.ElapsedText, theme.Muted.Render("remaining"), remaining)
	if timer.MilestoneText != "" {
		line += "   " + theme.Warn.Render(timer.MilestoneText)
	}
	sb.WriteString(line)

	style := theme.Card
	if selected {
		style = theme.CardSelected
	}
	w := m.width - 2
	if w < 30 {
		w = 78
	}
	return style.Width(w).Render(sb.String())
}
