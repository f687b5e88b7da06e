package in

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	examdto "examclock/internal/modules/exam/dto"
	examin "examclock/internal/modules/exam/port/in"
	apperrors "examclock/internal/platform/errors"
)

type CLIHandler struct {
	usecase examin.Usecase
}

func NewCLIHandler(usecase examin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) AddSubject(ctx context.Context, name, level string) (examdto.SubjectOutput, error) {
	return h.usecase.CreateSubject(ctx, examdto.CreateSubjectInput{Name: name, Level: level})
}

// SetSections replaces a subject's sections from text like
// "Paper 1=1h30m/5; Paper 2=2h".
func (h CLIHandler) SetSections(ctx context.Context, subjectID int64, raw string) (examdto.SubjectOutput, error) {
	sections, err := ParseSections(raw)
	if err != nil {
		return examdto.SubjectOutput{}, err
	}
	return h.usecase.ReplaceSections(ctx, examdto.ReplaceSectionsInput{SubjectID: subjectID, Sections: sections})
}

func (h CLIHandler) RenameSubject(ctx context.Context, subjectID int64, name string) (examdto.SubjectOutput, error) {
	return h.usecase.RenameSubject(ctx, examdto.RenameSubjectInput{SubjectID: subjectID, Name: name})
}

func (h CLIHandler) ToggleLevel(ctx context.Context, subjectID int64) (examdto.SubjectOutput, error) {
	return h.usecase.ToggleLevel(ctx, subjectID)
}

func (h CLIHandler) RemoveSubject(ctx context.Context, subjectID int64) error {
	return h.usecase.RemoveSubject(ctx, subjectID)
}

func (h CLIHandler) ListSubjects(ctx context.Context) ([]examdto.SubjectOutput, error) {
	return h.usecase.ListSubjects(ctx)
}

func (h CLIHandler) ImportRoster(ctx context.Context, path string) (examdto.ImportOutput, error) {
	return h.usecase.ImportRoster(ctx, examdto.ImportRosterInput{Path: path})
}

func (h CLIHandler) StartAll(ctx context.Context) (examdto.BoardOutput, error) {
	return h.usecase.StartAll(ctx)
}

func (h CLIHandler) StartTimer(ctx context.Context, timerID string) (examdto.BoardOutput, error) {
	return h.usecase.StartTimer(ctx, timerID)
}

// StartAt arms a timer for a wall clock time such as "14:30".
func (h CLIHandler) StartAt(ctx context.Context, timerID, clock string, now time.Time) (examdto.BoardOutput, error) {
	at, err := ParseClockTime(clock, now)
	if err != nil {
		return examdto.BoardOutput{}, err
	}
	return h.usecase.ScheduleStart(ctx, examdto.ScheduleStartInput{TimerID: timerID, At: at})
}

func (h CLIHandler) PauseAll(ctx context.Context) (examdto.BoardOutput, error) {
	return h.usecase.PauseAll(ctx)
}

func (h CLIHandler) ResumeAll(ctx context.Context) (examdto.BoardOutput, error) {
	return h.usecase.ResumeAll(ctx)
}

func (h CLIHandler) StopAll(ctx context.Context) (examdto.BoardOutput, error) {
	return h.usecase.StopAll(ctx)
}

func (h CLIHandler) StopTimer(ctx context.Context, timerID string) (examdto.BoardOutput, error) {
	return h.usecase.StopTimer(ctx, timerID)
}

func (h CLIHandler) Advance(ctx context.Context) (examdto.BoardOutput, error) {
	return h.usecase.Advance(ctx)
}

func (h CLIHandler) Tick(ctx context.Context) (examdto.BoardOutput, error) {
	return h.usecase.Tick(ctx)
}

func (h CLIHandler) Board(ctx context.Context) (examdto.BoardOutput, error) {
	return h.usecase.Board(ctx)
}

func (h CLIHandler) Journal(ctx context.Context, limit int) ([]examdto.JournalEntryOutput, error) {
	return h.usecase.RecentEvents(ctx, limit)
}

func (h CLIHandler) Reports(ctx context.Context, limit int) ([]examdto.ReportOutput, error) {
	return h.usecase.RecentReports(ctx, limit)
}

// ParseSections reads "name=duration[/reading minutes]" entries separated by
// semicolons. Durations use Go syntax ("1h30m", "45m") and must be whole
// minutes.
func ParseSections(raw string) ([]examdto.SectionInput, error) {
	var out []examdto.SectionInput
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, spec, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%w: section %q needs name=duration", apperrors.ErrInvalidInput, part)
		}
		length, reading, _ := strings.Cut(spec, "/")
		d, err := time.ParseDuration(strings.TrimSpace(length))
		if err != nil {
			return nil, fmt.Errorf("%w: section %q duration: %v", apperrors.ErrInvalidInput, strings.TrimSpace(name), err)
		}
		if d%time.Minute != 0 {
			return nil, fmt.Errorf("%w: section %q duration must be whole minutes", apperrors.ErrInvalidInput, strings.TrimSpace(name))
		}
		section := examdto.SectionInput{
			Name:    strings.TrimSpace(name),
			Hours:   int(d / time.Hour),
			Minutes: int((d % time.Hour) / time.Minute),
		}
		if reading = strings.TrimSuffix(strings.TrimSpace(reading), "m"); reading != "" {
			minutes, err := strconv.Atoi(reading)
			if err != nil {
				return nil, fmt.Errorf("%w: section %q reading time %q", apperrors.ErrInvalidInput, section.Name, reading)
			}
			section.ReadingMinutes = minutes
		}
		out = append(out, section)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: at least one section is required", apperrors.ErrInvalidInput)
	}
	return out, nil
}

// ParseClockTime resolves "HH:MM" to today's date in now's location.
func ParseClockTime(raw string, now time.Time) (time.Time, error) {
	parsed, err := time.ParseInLocation("15:04", strings.TrimSpace(raw), now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start time %q must be HH:MM", apperrors.ErrInvalidInput, raw)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), parsed.Hour(), parsed.Minute(), 0, 0, now.Location()), nil
}
