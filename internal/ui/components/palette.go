package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"examclock/internal/ui/theme"
)

// PaletteSubmitMsg is emitted when the user confirms a command.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the user presses esc.
type PaletteCancelMsg struct{}

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
)

// PaletteHints must stay in sync with the switch in app/palette.go.
// A subject id of "." means the subject selected on the Roster tab.
var PaletteHints = []string{
	"subject:add <HL|SL> <name>",
	"subject:rename <id|.> <name>",
	"subject:level <id|.>",
	"subject:remove <id|.>",
	"sections:set <id|.> <Paper 1=1h30m/5; Paper 2=2h>",
	"timer:start [timer]",
	"timer:at <HH:MM> [timer]",
	"timer:stop [timer]",
	"roster:import [path]",
}

// Palette is a command-palette overlay backed by bubbles/textinput. Up and
// down recall earlier commands; tab completes the command word.
type Palette struct {
	input   textinput.Model
	visible bool
	width   int
	history []string
	recall  int
}

func NewPalette() Palette {
	ti := textinput.New()
	ti.Placeholder = "subject:add HL Mathematics"
	ti.CharLimit = 256
	return Palette{input: ti}
}

func (p Palette) Visible() bool { return p.visible }

// Open shows the palette with an empty input and returns the focus command.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.recall = len(p.history)
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			p.visible = false
			p.input.Blur()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			val := strings.TrimSpace(p.input.Value())
			p.visible = false
			p.input.Blur()
			if val != "" && (len(p.history) == 0 || p.history[len(p.history)-1] != val) {
				p.history = append(p.history, val)
			}
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: val} }
		case "up":
			if p.recall > 0 {
				p.recall--
				p.setValue(p.history[p.recall])
			}
			return p, nil
		case "down":
			if p.recall < len(p.history) {
				p.recall++
			}
			if p.recall == len(p.history) {
				p.setValue("")
			} else {
				p.setValue(p.history[p.recall])
			}
			return p, nil
		case "tab":
			if word, ok := completeCommand(p.input.Value()); ok {
				p.setValue(word + " ")
			}
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *Palette) setValue(v string) {
	p.input.SetValue(v)
	p.input.CursorEnd()
}

// completeCommand returns the one command word the typed prefix can grow
// into. Input that already carries arguments is left alone.
func completeCommand(typed string) (string, bool) {
	typed = strings.TrimLeft(typed, " ")
	if typed == "" || strings.Contains(typed, " ") {
		return "", false
	}
	var found string
	for _, h := range PaletteHints {
		word, _, _ := strings.Cut(h, " ")
		if !strings.HasPrefix(word, strings.ToLower(typed)) {
			continue
		}
		if found != "" && found != word {
			return "", false
		}
		found = word
	}
	return found, found != ""
}

// MatchingHints returns the hints whose command starts with the typed word.
func MatchingHints(typed string, limit int) []string {
	word := strings.ToLower(strings.TrimSpace(typed))
	if i := strings.IndexByte(word, ' '); i >= 0 {
		word = word[:i]
	}
	var out []string
	for _, h := range PaletteHints {
		if word == "" || strings.HasPrefix(h, word) {
			out = append(out, h)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Command") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	if matching := MatchingHints(p.input.Value(), 6); len(matching) > 0 {
		sb.WriteString("\n")
		for _, h := range matching {
			sb.WriteString(hintStyle.Render("  "+h) + "\n")
		}
	}
	w := p.width
	if w < 20 {
		w = 72
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}
