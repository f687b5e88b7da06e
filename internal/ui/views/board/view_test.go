package board_test

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	examdto "examclock/internal/modules/exam/dto"
	apperrors "examclock/internal/platform/errors"
	"examclock/internal/ui/views/board"
)

func sampleBoard() examdto.BoardOutput {
	return examdto.BoardOutput{Timers: []examdto.TimerOutput{
		{ID: "a1b2c3d4-0000", State: "running", InfoText: "01h 30m (09:00 → 10:30)", RemainingText: "45:00", ElapsedText: "45:00", Percent: 50,
			Members: []examdto.MemberOutput{{SubjectID: 1, DisplayName: "Math HL", SectionName: "Paper 1"}}},
		{ID: "a1ffee00-1111", State: "finished", InfoText: "00h 05m", RemainingText: "00:00", ElapsedText: "05:00", Percent: 100,
			Members: []examdto.MemberOutput{{SubjectID: 2, DisplayName: "Bio SL", SectionName: "Paper 2"}}},
	}}
}

func TestFindTimerByPrefixAndSelection(t *testing.T) {
	t.Parallel()
	m := board.New()
	m.SetBoard(sampleBoard())

	if id, err := m.FindTimer(""); err != nil || id != "a1b2c3d4-0000" {
		t.Fatalf("expected selected timer, got %q %v", id, err)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if id, _ := m.SelectedTimerID(); id != "a1ffee00-1111" {
		t.Fatalf("cursor did not move, got %q", id)
	}
	if id, err := m.FindTimer("a1b"); err != nil || id != "a1b2c3d4-0000" {
		t.Fatalf("prefix lookup failed: %q %v", id, err)
	}
	if _, err := m.FindTimer("a1"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ambiguous prefix, got %v", err)
	}
	if _, err := m.FindTimer("zz"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	m.SetBoard(examdto.BoardOutput{})
	if _, ok := m.SelectedTimerID(); ok {
		t.Fatalf("empty board must have no selection")
	}
}

func TestViewRendersCards(t *testing.T) {
	t.Parallel()
	m := board.New()
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.SetBoard(sampleBoard())
	out := m.View()
	for _, want := range []string{"Math HL", "Paper 1", "01h 30m (09:00 → 10:30)", "RUNNING", "FINISHED", "a1b2c3d4"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view:\n%s", want, out)
		}
	}
}
