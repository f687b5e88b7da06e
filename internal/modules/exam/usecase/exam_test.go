package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"examclock/internal/modules/exam/domain"
	examdto "examclock/internal/modules/exam/dto"
	examin "examclock/internal/modules/exam/port/in"
	examout "examclock/internal/modules/exam/port/out"
	"examclock/internal/modules/exam/service"
	"examclock/internal/modules/exam/usecase"
	apperrors "examclock/internal/platform/errors"
	"examclock/internal/platform/id"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

type fakeID struct {
	n int
}

func (f *fakeID) New() string {
	f.n++
	return fmt.Sprintf("timer-%d", f.n)
}

type recordingSink struct {
	events []domain.Event
}

func (r *recordingSink) Publish(_ context.Context, event domain.Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) kinds() []domain.EventKind {
	out := make([]domain.EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

type failingSink struct{}

func (failingSink) Publish(context.Context, domain.Event) error { return errors.New("disk full") }

type fakeRoster struct {
	entries []domain.RosterEntry
	err     error
}

func (f fakeRoster) Load(context.Context, string) ([]domain.RosterEntry, error) {
	return f.entries, f.err
}

type fakeJournal struct {
	entries []domain.JournalEntry
}

func (f fakeJournal) Recent(_ context.Context, limit int) ([]domain.JournalEntry, error) {
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

type fakeReports struct {
	reports []domain.ReportSummary
}

func (f fakeReports) RecentReports(_ context.Context, limit int) ([]domain.ReportSummary, error) {
	if limit < len(f.reports) {
		return f.reports[:limit], nil
	}
	return f.reports, nil
}

func newUsecase(roster examout.RosterSource, sinks ...examout.EventSink) (examin.Usecase, *fakeClock) {
	clk := &fakeClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.Local)}
	svc := service.NewScheduler(clk, &id.Counter{}, &fakeID{}, nil)
	journal := fakeJournal{entries: []domain.JournalEntry{{ID: 2, Kind: domain.EventTimerStarted, TimerID: "timer-1", Duration: 90 * time.Minute}, {ID: 1, Kind: domain.EventTimerCreated}}}
	reports := fakeReports{reports: []domain.ReportSummary{{TimerID: "timer-1", Duration: "01h 30m", PausedSeconds: 60, Subjects: []string{"Math HL"}}}}
	return usecase.NewInteractor(svc, roster, journal, reports, nil, sinks...), clk
}

func TestExamFlowThroughUsecase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sink := &recordingSink{}
	uc, clk := newUsecase(nil, sink, failingSink{})

	math, err := uc.CreateSubject(ctx, examdto.CreateSubjectInput{Name: "Math", Level: "HL"})
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}
	if math.DisplayName != "Math HL" || math.Pool != "idle" {
		t.Fatalf("unexpected subject %+v", math)
	}
	math, err = uc.ReplaceSections(ctx, examdto.ReplaceSectionsInput{SubjectID: math.ID, Sections: []examdto.SectionInput{{Name: "Paper 1", Minutes: 5, ReadingMinutes: 5}}})
	if err != nil {
		t.Fatalf("replace sections: %v", err)
	}
	if math.TimerID == "" || !math.Sections[0].InProgress {
		t.Fatalf("expected subject grouped, got %+v", math)
	}

	board, err := uc.StartAll(ctx)
	if err != nil {
		t.Fatalf("start all: %v", err)
	}
	if board.Affected != 1 || board.Active != 1 || board.Timers[0].State != "running" {
		t.Fatalf("unexpected board after start %+v", board)
	}
	if got := board.Timers[0].Members[0].SectionName; got != "Paper 1 (+5m reading)" {
		t.Fatalf("unexpected section label %q", got)
	}

	var notices []string
	for i := 0; i < 300; i++ {
		clk.now = clk.now.Add(time.Second)
		board, err = uc.Tick(ctx)
		if err != nil {
			t.Fatalf("tick: %v", err)
		}
		notices = append(notices, board.Notices...)
	}
	if len(notices) != 1 || notices[0] != "time is up: Math HL" {
		t.Fatalf("unexpected notices %v", notices)
	}
	if !board.CanAdvance || board.Timers[0].Percent != 100 || board.ClockText != "09:05:00" {
		t.Fatalf("unexpected finished board %+v", board)
	}

	board, err = uc.Advance(ctx)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(board.Timers) != 0 || board.Pending {
		t.Fatalf("expected empty board, got %+v", board.Timers)
	}

	joined := fmt.Sprint(sink.kinds())
	for _, kind := range []domain.EventKind{domain.EventTimerCreated, domain.EventTimerStarted, domain.EventTimerFinished, domain.EventTimerRemoved, domain.EventTimersAdvanced} {
		if !strings.Contains(joined, string(kind)) {
			t.Fatalf("expected %s in published events %s", kind, joined)
		}
	}
}

func TestUsecaseSurfacesCoreErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uc, _ := newUsecase(nil)

	if _, err := uc.CreateSubject(ctx, examdto.CreateSubjectInput{Name: "Math", Level: "AP"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid level, got %v", err)
	}
	if _, err := uc.CreateSubject(ctx, examdto.CreateSubjectInput{Name: "Math", Level: "HL"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := uc.CreateSubject(ctx, examdto.CreateSubjectInput{Name: "Math", Level: "1"}); !errors.Is(err, apperrors.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if _, err := uc.ToggleLevel(ctx, 42); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := uc.RemoveSubject(ctx, 42); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := uc.ScheduleStart(ctx, examdto.ScheduleStartInput{TimerID: "timer-1"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for missing time, got %v", err)
	}
	if _, err := uc.StopTimer(ctx, "timer-9"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := uc.ImportRoster(ctx, examdto.ImportRosterInput{Path: "roster.yaml"}); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("expected invalid state without roster source, got %v", err)
	}
	subjects, _ := uc.ListSubjects(ctx)
	if len(subjects) != 1 {
		t.Fatalf("failed calls must not register subjects, got %d", len(subjects))
	}
}

func TestImportRosterSkipsDuplicatesAndGroupsOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	roster := fakeRoster{entries: []domain.RosterEntry{
		{Name: "Math", Level: domain.LevelHL, Sections: []domain.SectionSpec{{Name: "P1", Hours: 2}, {Name: "P2", Hours: 1}}},
		{Name: "Physics", Level: domain.LevelSL, Sections: []domain.SectionSpec{{Name: "P1", Hours: 2}}},
		{Name: "math", Level: domain.LevelHL, Sections: []domain.SectionSpec{{Name: "P1", Minutes: 30}}},
		{Name: "Art", Level: domain.LevelSL, Sections: []domain.SectionSpec{{Name: "", Minutes: 30}}},
		{Name: "Chem", Level: domain.LevelHL, Sections: []domain.SectionSpec{{Name: "P1", Minutes: 45}}},
	}}
	sink := &recordingSink{}
	uc, _ := newUsecase(roster, sink)

	out, err := uc.ImportRoster(ctx, examdto.ImportRosterInput{Path: "roster.yaml"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(out.Created) != 3 || len(out.Skipped) != 2 || out.Timers != 2 {
		t.Fatalf("unexpected import result %+v", out)
	}
	if !strings.HasPrefix(out.Skipped[0], "math HL") {
		t.Fatalf("unexpected skip message %q", out.Skipped[0])
	}
	created := 0
	for _, ev := range sink.events {
		if ev.Kind == domain.EventTimerCreated {
			created++
		}
	}
	if created != 2 {
		t.Fatalf("expected two timers created, got %d", created)
	}

	board, _ := uc.Board(ctx)
	if len(board.Timers) != 2 || board.Timers[0].Duration != 45*time.Minute {
		t.Fatalf("expected ascending duration timers, got %+v", board.Timers)
	}
	if board.Timers[1].InfoText != "02h 00m" || len(board.Timers[1].Members) != 2 {
		t.Fatalf("unexpected long timer %+v", board.Timers[1])
	}
}

func TestImportRosterPropagatesLoadErrors(t *testing.T) {
	t.Parallel()
	uc, _ := newUsecase(fakeRoster{err: apperrors.ErrNotFound})
	if _, err := uc.ImportRoster(context.Background(), examdto.ImportRosterInput{Path: "missing.yaml"}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected load error, got %v", err)
	}
	if _, err := uc.ImportRoster(context.Background(), examdto.ImportRosterInput{}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank path, got %v", err)
	}
}

func TestRecentEventsMapsJournal(t *testing.T) {
	t.Parallel()
	uc, _ := newUsecase(nil)
	entries, err := uc.RecentEvents(context.Background(), 1)
	if err != nil {
		t.Fatalf("recent events: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != "timer_started" || entries[0].DurationSeconds != 5400 {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if _, err := uc.RecentEvents(context.Background(), 0); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRecentReportsMapsSummaries(t *testing.T) {
	t.Parallel()
	uc, _ := newUsecase(nil)
	reports, err := uc.RecentReports(context.Background(), 3)
	if err != nil {
		t.Fatalf("recent reports: %v", err)
	}
	if len(reports) != 1 || reports[0].TimerID != "timer-1" || reports[0].PausedSeconds != 60 || reports[0].Subjects[0] != "Math HL" {
		t.Fatalf("unexpected reports %+v", reports)
	}
	if _, err := uc.RecentReports(context.Background(), -1); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	bare := usecase.NewInteractor(service.NewScheduler(&fakeClock{}, &id.Counter{}, &fakeID{}, nil), nil, nil, nil, nil)
	if _, err := bare.RecentReports(context.Background(), 3); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("expected invalid state without a report reader, got %v", err)
	}
}

func TestPauseResumeStopThroughUsecase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uc, clk := newUsecase(nil)
	math, _ := uc.CreateSubject(ctx, examdto.CreateSubjectInput{Name: "Math", Level: "SL"})
	if _, err := uc.ReplaceSections(ctx, examdto.ReplaceSectionsInput{SubjectID: math.ID, Sections: []examdto.SectionInput{{Name: "P1", Hours: 1}}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if _, err := uc.StartAll(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	clk.now = clk.now.Add(10 * time.Minute)
	board, _ := uc.PauseAll(ctx)
	if board.Affected != 1 || board.Timers[0].State != "paused" || board.Timers[0].RemainingText != "50:00" {
		t.Fatalf("unexpected paused board %+v", board.Timers[0])
	}
	clk.now = clk.now.Add(15 * time.Minute)
	board, _ = uc.ResumeAll(ctx)
	if board.Timers[0].EndsAt.Sub(board.Timers[0].StartedAt) != time.Hour || board.Timers[0].PausedTotal != 15*time.Minute {
		t.Fatalf("resume must shift the window, got %+v", board.Timers[0])
	}
	if board.Timers[0].InfoText != "01h 00m (09:15 → 10:15)" {
		t.Fatalf("unexpected info text %q", board.Timers[0].InfoText)
	}
	board, _ = uc.StopAll(ctx)
	if board.Affected != 1 || len(board.Timers) != 1 || board.Timers[0].State != "created" || board.Active != 0 {
		t.Fatalf("expected a fresh pending timer after stop, got %+v", board)
	}
}
