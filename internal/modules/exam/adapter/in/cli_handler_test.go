package in_test

import (
	"errors"
	"testing"
	"time"

	examin "examclock/internal/modules/exam/adapter/in"
	apperrors "examclock/internal/platform/errors"
)

func TestParseSections(t *testing.T) {
	t.Parallel()
	sections, err := examin.ParseSections("Paper 1=1h30m/5; Paper 2 = 45m ;Paper 3=2h/10m")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(sections) != 3 {
		t.Fatalf("expected three sections, got %+v", sections)
	}
	first := sections[0]
	if first.Name != "Paper 1" || first.Hours != 1 || first.Minutes != 30 || first.ReadingMinutes != 5 {
		t.Fatalf("unexpected first section %+v", first)
	}
	if sections[1].Name != "Paper 2" || sections[1].Hours != 0 || sections[1].Minutes != 45 {
		t.Fatalf("unexpected second section %+v", sections[1])
	}
	if sections[2].Hours != 2 || sections[2].ReadingMinutes != 10 {
		t.Fatalf("unexpected third section %+v", sections[2])
	}

	for _, raw := range []string{"", "Paper 1", "Paper 1=soon", "Paper 1=90s", "Paper 1=1h/x"} {
		if _, err := examin.ParseSections(raw); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("%q: expected invalid input, got %v", raw, err)
		}
	}
}

func TestParseClockTime(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 5, 4, 8, 12, 40, 0, time.UTC)
	at, err := examin.ParseClockTime("09:30", now)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !at.Equal(time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", at)
	}
	if _, err := examin.ParseClockTime("9.30", now); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
