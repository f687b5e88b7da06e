package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	hclog "github.com/hashicorp/go-hclog"

	"examclock/internal/modules/exam/domain"
	examdto "examclock/internal/modules/exam/dto"
	examin "examclock/internal/modules/exam/port/in"
	examout "examclock/internal/modules/exam/port/out"
	"examclock/internal/modules/exam/service"
	apperrors "examclock/internal/platform/errors"
)

// Interactor serializes every call onto the scheduler and fans the
// resulting events out to the configured sinks.
type Interactor struct {
	mu      sync.Mutex
	svc     *service.Scheduler
	sinks   []examout.EventSink
	roster  examout.RosterSource
	journal examout.JournalReader
	reports examout.ReportReader
	logger  hclog.Logger
}

func NewInteractor(svc *service.Scheduler, roster examout.RosterSource, journal examout.JournalReader, reports examout.ReportReader, logger hclog.Logger, sinks ...examout.EventSink) examin.Usecase {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Interactor{svc: svc, sinks: sinks, roster: roster, journal: journal, reports: reports, logger: logger.Named("exam")}
}

func (i *Interactor) CreateSubject(ctx context.Context, input examdto.CreateSubjectInput) (examdto.SubjectOutput, error) {
	level, err := domain.ParseLevel(input.Level)
	if err != nil {
		return examdto.SubjectOutput{}, err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	subject, err := i.svc.CreateSubject(input.Name, level)
	if err != nil {
		return examdto.SubjectOutput{}, err
	}
	i.publish(ctx)
	return i.subjectOutput(subject.ID)
}

func (i *Interactor) ReplaceSections(ctx context.Context, input examdto.ReplaceSectionsInput) (examdto.SubjectOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.svc.ReplaceSections(input.SubjectID, toSpecs(input.Sections)); err != nil {
		return examdto.SubjectOutput{}, err
	}
	i.publish(ctx)
	return i.subjectOutput(input.SubjectID)
}

func (i *Interactor) RenameSubject(ctx context.Context, input examdto.RenameSubjectInput) (examdto.SubjectOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.svc.RenameSubject(input.SubjectID, input.Name); err != nil {
		return examdto.SubjectOutput{}, err
	}
	i.publish(ctx)
	return i.subjectOutput(input.SubjectID)
}

func (i *Interactor) ToggleLevel(ctx context.Context, subjectID int64) (examdto.SubjectOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.svc.ToggleLevel(subjectID); err != nil {
		return examdto.SubjectOutput{}, err
	}
	i.publish(ctx)
	return i.subjectOutput(subjectID)
}

func (i *Interactor) RemoveSubject(ctx context.Context, subjectID int64) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.svc.RemoveSubject(subjectID); err != nil {
		return err
	}
	i.publish(ctx)
	return nil
}

func (i *Interactor) ListSubjects(_ context.Context) ([]examdto.SubjectOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	states := i.svc.Subjects()
	out := make([]examdto.SubjectOutput, 0, len(states))
	for _, state := range states {
		out = append(out, toSubjectOutput(state))
	}
	return out, nil
}

// ImportRoster registers every roster subject it can. Duplicates and invalid
// entries are reported in Skipped; grouping runs once at the end.
func (i *Interactor) ImportRoster(ctx context.Context, input examdto.ImportRosterInput) (examdto.ImportOutput, error) {
	if i.roster == nil {
		return examdto.ImportOutput{}, fmt.Errorf("%w: roster source is not configured", apperrors.ErrInvalidState)
	}
	if strings.TrimSpace(input.Path) == "" {
		return examdto.ImportOutput{}, fmt.Errorf("%w: roster path is required", apperrors.ErrInvalidInput)
	}
	entries, err := i.roster.Load(ctx, input.Path)
	if err != nil {
		return examdto.ImportOutput{}, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	out := examdto.ImportOutput{}
	var created []int64
	for _, entry := range entries {
		subject, err := i.svc.ImportSubject(entry.Name, entry.Level, entry.Sections)
		if err != nil {
			label := domain.DisplayName(strings.TrimSpace(entry.Name), entry.Level)
			if errors.Is(err, apperrors.ErrDuplicate) {
				i.logger.Debug("roster duplicate skipped", "subject", label)
			} else {
				i.logger.Warn("roster entry skipped", "subject", label, "error", err)
			}
			out.Skipped = append(out.Skipped, fmt.Sprintf("%s: %v", label, err))
			continue
		}
		created = append(created, subject.ID)
	}
	res := i.svc.Group()
	out.Timers = len(res.Created)
	for _, id := range created {
		subject, err := i.subjectOutput(id)
		if err != nil {
			return examdto.ImportOutput{}, err
		}
		out.Created = append(out.Created, subject)
	}
	i.logger.Info("roster imported", "path", input.Path, "created", len(out.Created), "skipped", len(out.Skipped))
	i.publish(ctx)
	return out, nil
}

func (i *Interactor) StartAll(ctx context.Context) (examdto.BoardOutput, error) {
	return i.control(ctx, func() (int, error) { return i.svc.StartAll(), nil })
}

func (i *Interactor) StartTimer(ctx context.Context, timerID string) (examdto.BoardOutput, error) {
	return i.control(ctx, func() (int, error) { return 1, i.svc.StartTimer(timerID) })
}

func (i *Interactor) ScheduleStart(ctx context.Context, input examdto.ScheduleStartInput) (examdto.BoardOutput, error) {
	if input.At.IsZero() {
		return examdto.BoardOutput{}, fmt.Errorf("%w: start time is required", apperrors.ErrInvalidInput)
	}
	return i.control(ctx, func() (int, error) { return 1, i.svc.ScheduleStart(input.TimerID, input.At) })
}

func (i *Interactor) PauseAll(ctx context.Context) (examdto.BoardOutput, error) {
	return i.control(ctx, func() (int, error) { return i.svc.PauseAll(), nil })
}

func (i *Interactor) ResumeAll(ctx context.Context) (examdto.BoardOutput, error) {
	return i.control(ctx, func() (int, error) { return i.svc.ResumeAll(), nil })
}

func (i *Interactor) StopAll(ctx context.Context) (examdto.BoardOutput, error) {
	return i.control(ctx, func() (int, error) { return i.svc.StopAll(), nil })
}

func (i *Interactor) StopTimer(ctx context.Context, timerID string) (examdto.BoardOutput, error) {
	return i.control(ctx, func() (int, error) { return 1, i.svc.StopTimer(timerID) })
}

func (i *Interactor) Advance(ctx context.Context) (examdto.BoardOutput, error) {
	return i.control(ctx, func() (int, error) { return i.svc.Advance(), nil })
}

func (i *Interactor) Tick(ctx context.Context) (examdto.BoardOutput, error) {
	return i.control(ctx, func() (int, error) {
		i.svc.Tick()
		return 0, nil
	})
}

func (i *Interactor) Board(_ context.Context) (examdto.BoardOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.board(nil), nil
}

func (i *Interactor) RecentEvents(ctx context.Context, limit int) ([]examdto.JournalEntryOutput, error) {
	if i.journal == nil {
		return nil, fmt.Errorf("%w: journal is not configured", apperrors.ErrInvalidState)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", apperrors.ErrInvalidInput)
	}
	entries, err := i.journal.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]examdto.JournalEntryOutput, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toJournalOutput(entry))
	}
	return out, nil
}

func (i *Interactor) RecentReports(ctx context.Context, limit int) ([]examdto.ReportOutput, error) {
	if i.reports == nil {
		return nil, fmt.Errorf("%w: reports are not configured", apperrors.ErrInvalidState)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", apperrors.ErrInvalidInput)
	}
	reports, err := i.reports.RecentReports(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]examdto.ReportOutput, 0, len(reports))
	for _, report := range reports {
		out = append(out, toReportOutput(report))
	}
	return out, nil
}

func (i *Interactor) control(ctx context.Context, op func() (int, error)) (examdto.BoardOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	affected, err := op()
	if err != nil {
		return examdto.BoardOutput{}, err
	}
	events := i.publish(ctx)
	board := i.board(events)
	board.Affected = affected
	return board, nil
}

// publish drains the scheduler outbox into every sink. Sink failures are
// logged and swallowed.
func (i *Interactor) publish(ctx context.Context) []domain.Event {
	events := i.svc.Drain()
	for _, event := range events {
		for _, sink := range i.sinks {
			if err := sink.Publish(ctx, event); err != nil {
				i.logger.Warn("event sink failed", "kind", string(event.Kind), "timer", event.TimerID, "error", err)
			}
		}
	}
	return events
}

func (i *Interactor) board(events []domain.Event) examdto.BoardOutput {
	now := i.svc.Now()
	snaps := i.svc.Timers()
	out := examdto.BoardOutput{
		Now:        now,
		ClockText:  domain.FormatWallClock(now),
		Timers:     make([]examdto.TimerOutput, 0, len(snaps)),
		CanAdvance: i.svc.CanAdvance(),
		Pending:    i.svc.Pending(),
		Notices:    notices(events),
	}
	for _, snap := range snaps {
		out.Timers = append(out.Timers, toTimerOutput(snap))
	}
	for _, state := range i.svc.Subjects() {
		if state.Pool == domain.PoolActive {
			out.Active++
		} else {
			out.Idle++
		}
	}
	return out
}

func (i *Interactor) subjectOutput(subjectID int64) (examdto.SubjectOutput, error) {
	state, err := i.svc.Subject(subjectID)
	if err != nil {
		return examdto.SubjectOutput{}, err
	}
	return toSubjectOutput(state), nil
}
