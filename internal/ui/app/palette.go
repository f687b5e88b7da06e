package app

import (
	"context"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	examdto "examclock/internal/modules/exam/dto"
)

// executePalette runs one command typed into the palette. Hints for these
// commands live in components.PaletteHints.
func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	// rest returns the raw input after the first n fields.
	rest := func(n int) string {
		if len(parts) <= n {
			return ""
		}
		out := strings.TrimSpace(input)
		for _, field := range parts[:n] {
			out = strings.TrimSpace(strings.TrimPrefix(out, field))
		}
		return out
	}

	switch parts[0] {
	case "subject:add":
		if len(parts) < 3 {
			m.setStatus("usage: subject:add <HL|SL> <name>", true)
			return m, nil
		}
		level, name := parts[1], rest(2)
		return m, m.subjectCmd("add", func(ctx context.Context) (examdto.SubjectOutput, error) {
			return m.exam.AddSubject(ctx, name, level)
		})

	case "subject:rename":
		id, ok := m.subjectArg(parts, 1)
		if !ok || len(parts) < 3 {
			m.setStatus("usage: subject:rename <id|.> <name>", true)
			return m, nil
		}
		name := rest(2)
		return m, m.subjectCmd("rename", func(ctx context.Context) (examdto.SubjectOutput, error) {
			return m.exam.RenameSubject(ctx, id, name)
		})

	case "subject:level":
		id, ok := m.subjectArg(parts, 1)
		if !ok {
			m.setStatus("usage: subject:level <id|.>", true)
			return m, nil
		}
		return m, m.subjectCmd("level", func(ctx context.Context) (examdto.SubjectOutput, error) {
			return m.exam.ToggleLevel(ctx, id)
		})

	case "subject:remove":
		id, ok := m.subjectArg(parts, 1)
		if !ok {
			m.setStatus("usage: subject:remove <id|.>", true)
			return m, nil
		}
		return m, m.subjectCmd("remove", func(ctx context.Context) (examdto.SubjectOutput, error) {
			return examdto.SubjectOutput{}, m.exam.RemoveSubject(ctx, id)
		})

	case "sections:set":
		id, ok := m.subjectArg(parts, 1)
		if !ok || len(parts) < 3 {
			m.setStatus("usage: sections:set <id|.> <Paper 1=1h30m/5; Paper 2=2h>", true)
			return m, nil
		}
		raw := rest(2)
		return m, m.subjectCmd("sections", func(ctx context.Context) (examdto.SubjectOutput, error) {
			return m.exam.SetSections(ctx, id, raw)
		})

	case "timer:start":
		timerID, err := m.boardView.FindTimer(rest(1))
		if err != nil {
			m.setStatus("timer:start: "+err.Error(), true)
			return m, nil
		}
		return m, m.boardCmd("start", func(ctx context.Context) (examdto.BoardOutput, error) {
			return m.exam.StartTimer(ctx, timerID)
		})

	case "timer:stop":
		timerID, err := m.boardView.FindTimer(rest(1))
		if err != nil {
			m.setStatus("timer:stop: "+err.Error(), true)
			return m, nil
		}
		return m, m.boardCmd("stop", func(ctx context.Context) (examdto.BoardOutput, error) {
			return m.exam.StopTimer(ctx, timerID)
		})

	case "timer:at":
		if len(parts) < 2 {
			m.setStatus("usage: timer:at <HH:MM> [timer]", true)
			return m, nil
		}
		timerID, err := m.boardView.FindTimer(rest(2))
		if err != nil {
			m.setStatus("timer:at: "+err.Error(), true)
			return m, nil
		}
		clock, now := parts[1], m.now()
		return m, m.boardCmd("scheduled", func(ctx context.Context) (examdto.BoardOutput, error) {
			return m.exam.StartAt(ctx, timerID, clock, now)
		})

	case "roster:import":
		path := rest(1)
		if path == "" {
			path = m.rosterPath
		}
		if path == "" {
			m.setStatus("usage: roster:import <path>", true)
			return m, nil
		}
		return m, m.importCmd(path)

	default:
		m.setStatus("unknown command: "+parts[0], true)
	}
	return m, nil
}

// subjectArg reads a subject id at parts[idx]; "." picks the subject selected
// on the Roster tab.
func (m Model) subjectArg(parts []string, idx int) (int64, bool) {
	if len(parts) <= idx {
		return 0, false
	}
	if parts[idx] == "." {
		return m.rosterView.SelectedSubjectID()
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(parts[idx], "#"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
