package domain

import "time"

// RosterEntry is one subject read from an external roster file.
type RosterEntry struct {
	Name     string
	Level    Level
	Sections []SectionSpec
}

// JournalEntry is a recorded event as read back for display.
type JournalEntry struct {
	ID       int64
	At       time.Time
	Kind     EventKind
	TimerID  string
	Duration time.Duration
	Subjects []string
	Detail   string
}

// ReportSummary is the frontmatter of one finished-timer report.
type ReportSummary struct {
	Path          string
	TimerID       string
	Duration      string
	StartedAt     time.Time
	EndedAt       time.Time
	PausedSeconds int64
	Subjects      []string
}
