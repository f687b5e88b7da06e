package domain

import (
	"fmt"
	"strings"
	"time"
)

// FormatClock renders MM:SS below one hour and HH:MM:SS from one hour up.
// Negative input renders as zero.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours == 0 {
		return fmt.Sprintf("%02d:%02d", minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatDurationLabel renders a section length as "01h 30m".
func FormatDurationLabel(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int64(d / time.Minute)
	return fmt.Sprintf("%02dh %02dm", minutes/60, minutes%60)
}

func FormatWallClock(t time.Time) string {
	return t.Format("15:04:05")
}

func formatHourMinute(t time.Time) string {
	return t.Format("15:04")
}

// InfoText describes a timer's length and, once started, its window.
func (s TimerSnapshot) InfoText() string {
	label := FormatDurationLabel(s.Duration)
	if s.State == TimerCreated || s.StartTime.IsZero() {
		return label
	}
	return fmt.Sprintf("%s (%s → %s)", label, formatHourMinute(s.StartTime), formatHourMinute(s.EndTime))
}

func (s TimerSnapshot) MilestoneText() string {
	parts := make([]string, 0, 2)
	if s.ThirtyMinuteMark != nil {
		parts = append(parts, "30m: "+formatHourMinute(*s.ThirtyMinuteMark))
	}
	if s.FiveMinuteMark != nil {
		parts = append(parts, "5min: "+formatHourMinute(*s.FiveMinuteMark))
	}
	return strings.Join(parts, " | ")
}

func (s TimerSnapshot) ElapsedText() string   { return FormatClock(s.Elapsed) }
func (s TimerSnapshot) RemainingText() string { return FormatClock(s.Remaining) }
