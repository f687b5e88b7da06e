package usecase

import (
	"fmt"
	"strings"
	"time"

	"examclock/internal/modules/exam/domain"
	examdto "examclock/internal/modules/exam/dto"
	"examclock/internal/modules/exam/service"
)

func toSpecs(in []examdto.SectionInput) []domain.SectionSpec {
	out := make([]domain.SectionSpec, 0, len(in))
	for _, section := range in {
		out = append(out, domain.SectionSpec{
			Name:           section.Name,
			Hours:          section.Hours,
			Minutes:        section.Minutes,
			ReadingMinutes: section.ReadingMinutes,
		})
	}
	return out
}

func toSubjectOutput(state service.SubjectState) examdto.SubjectOutput {
	subject := state.Subject
	out := examdto.SubjectOutput{
		ID:          subject.ID,
		Name:        subject.Name,
		Level:       subject.Level.String(),
		DisplayName: subject.DisplayName(),
		Pool:        state.Pool.String(),
		TimerID:     state.TimerID,
		Completed:   subject.Completed(),
		CreatedAt:   subject.CreatedAt,
		Sections:    make([]examdto.SectionOutput, 0, len(subject.Sections)),
	}
	for _, section := range subject.Sections {
		out.Sections = append(out.Sections, examdto.SectionOutput{
			ID:             section.ID,
			Name:           section.Name,
			Label:          section.Label(),
			Duration:       section.Duration,
			DurationText:   domain.FormatDurationLabel(section.Duration),
			ReadingMinutes: int(section.ReadingTime / time.Minute),
			InProgress:     section.InProgress,
			Run:            section.Run,
		})
	}
	return out
}

func toTimerOutput(snap domain.TimerSnapshot) examdto.TimerOutput {
	out := examdto.TimerOutput{
		ID:               snap.ID,
		Duration:         snap.Duration,
		DurationText:     domain.FormatDurationLabel(snap.Duration),
		State:            snap.State.String(),
		ElapsedText:      snap.ElapsedText(),
		RemainingText:    snap.RemainingText(),
		Percent:          snap.Percent,
		ThirtyMinuteMark: snap.ThirtyMinuteMark,
		FiveMinuteMark:   snap.FiveMinuteMark,
		InfoText:         snap.InfoText(),
		MilestoneText:    snap.MilestoneText(),
		StartedAt:        snap.StartTime,
		EndsAt:           snap.EndTime,
		ScheduledStart:   snap.ScheduledStart,
		PausedTotal:      snap.PausedTotal,
		Members:          make([]examdto.MemberOutput, 0, len(snap.Members)),
	}
	for _, member := range snap.Members {
		out.Members = append(out.Members, examdto.MemberOutput{
			SubjectID:   member.SubjectID,
			DisplayName: member.DisplayName(),
			SectionName: member.SectionName,
		})
	}
	return out
}

func toJournalOutput(entry domain.JournalEntry) examdto.JournalEntryOutput {
	return examdto.JournalEntryOutput{
		ID:              entry.ID,
		At:              entry.At,
		Kind:            string(entry.Kind),
		TimerID:         entry.TimerID,
		DurationSeconds: int64(entry.Duration / time.Second),
		Subjects:        entry.Subjects,
		Detail:          entry.Detail,
	}
}

func toReportOutput(report domain.ReportSummary) examdto.ReportOutput {
	return examdto.ReportOutput{
		Path:          report.Path,
		TimerID:       report.TimerID,
		Duration:      report.Duration,
		StartedAt:     report.StartedAt,
		EndedAt:       report.EndedAt,
		PausedSeconds: report.PausedSeconds,
		Subjects:      report.Subjects,
	}
}

// notices turns milestone and finish events into operator messages.
func notices(events []domain.Event) []string {
	var out []string
	for _, event := range events {
		names := make([]string, 0, len(event.Snapshot.Members))
		for _, member := range event.Snapshot.Members {
			names = append(names, member.DisplayName())
		}
		who := strings.Join(names, ", ")
		switch event.Kind {
		case domain.EventTimerMilestone:
			left := "30 minutes"
			if event.Milestone == domain.MilestoneFiveMinutes {
				left = "5 minutes"
			}
			out = append(out, fmt.Sprintf("%s remaining: %s", left, who))
		case domain.EventTimerFinished:
			out = append(out, fmt.Sprintf("time is up: %s", who))
		}
	}
	return out
}
