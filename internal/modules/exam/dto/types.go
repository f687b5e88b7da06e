package dto

import "time"

type CreateSubjectInput struct {
	Name  string
	Level string
}

type SectionInput struct {
	Name           string
	Hours          int
	Minutes        int
	ReadingMinutes int
}

type ReplaceSectionsInput struct {
	SubjectID int64
	Sections  []SectionInput
}

type RenameSubjectInput struct {
	SubjectID int64
	Name      string
}

type ScheduleStartInput struct {
	TimerID string
	At      time.Time
}

type ImportRosterInput struct {
	Path string
}

type SectionOutput struct {
	ID             int64
	Name           string
	Label          string
	Duration       time.Duration
	DurationText   string
	ReadingMinutes int
	InProgress     bool
	Run            bool
}

type SubjectOutput struct {
	ID          int64
	Name        string
	Level       string
	DisplayName string
	Pool        string
	TimerID     string
	Completed   bool
	CreatedAt   time.Time
	Sections    []SectionOutput
}

type MemberOutput struct {
	SubjectID   int64
	DisplayName string
	SectionName string
}

type TimerOutput struct {
	ID               string
	Duration         time.Duration
	DurationText     string
	State            string
	ElapsedText      string
	RemainingText    string
	Percent          float64
	Members          []MemberOutput
	ThirtyMinuteMark *time.Time
	FiveMinuteMark   *time.Time
	InfoText         string
	MilestoneText    string
	StartedAt        time.Time
	EndsAt           time.Time
	ScheduledStart   *time.Time
	PausedTotal      time.Duration
}

// BoardOutput is everything the operator screen shows at one instant.
type BoardOutput struct {
	Now        time.Time
	ClockText  string
	Timers     []TimerOutput
	CanAdvance bool
	Pending    bool
	Idle       int
	Active     int
	Affected   int
	Notices    []string
}

type ImportOutput struct {
	Created []SubjectOutput
	Skipped []string
	Timers  int
}

type JournalEntryOutput struct {
	ID              int64
	At              time.Time
	Kind            string
	TimerID         string
	DurationSeconds int64
	Subjects        []string
	Detail          string
}

type ReportOutput struct {
	Path          string
	TimerID       string
	Duration      string
	StartedAt     time.Time
	EndedAt       time.Time
	PausedSeconds int64
	Subjects      []string
}
