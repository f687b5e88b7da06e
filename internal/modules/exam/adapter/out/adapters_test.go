package out_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	examout "examclock/internal/modules/exam/adapter/out"
	"examclock/internal/modules/exam/domain"
	apperrors "examclock/internal/platform/errors"
	"examclock/internal/platform/markdown"
)

func finishedSnapshot(t *testing.T, start time.Time) domain.TimerSnapshot {
	t.Helper()
	timer := domain.NewTimer("timer-1", 90*time.Minute)
	_ = timer.AddMember(domain.Member{SubjectID: 1, Name: "Math", Level: domain.LevelHL, SectionName: "Paper 1"})
	_ = timer.AddMember(domain.Member{SubjectID: 2, Name: "Bio", Level: domain.LevelSL, SectionName: "Paper 2 (+5m reading)"})
	if err := timer.Start(start); err != nil {
		t.Fatalf("start: %v", err)
	}
	if res := timer.Tick(start.Add(90 * time.Minute)); !res.Finished {
		t.Fatalf("expected finish")
	}
	return timer.Snapshot(start.Add(90 * time.Minute))
}

func TestSQLiteJournalAppendsStructuralEvents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	journal, err := examout.NewSQLiteJournal(filepath.Join(t.TempDir(), ".examclock", "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer journal.Close()

	start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	snap := finishedSnapshot(t, start)
	events := []domain.Event{
		{Kind: domain.EventTimerStarted, At: start, TimerID: snap.ID, Snapshot: snap},
		{Kind: domain.EventTimerTick, At: start.Add(time.Second), TimerID: snap.ID, Snapshot: snap},
		{Kind: domain.EventTimerMilestone, At: start.Add(time.Hour), TimerID: snap.ID, Snapshot: snap, Milestone: domain.MilestoneThirtyMinutes},
		{Kind: domain.EventTimerFinished, At: start.Add(90 * time.Minute), TimerID: snap.ID, Snapshot: snap},
	}
	for _, ev := range events {
		if err := journal.Publish(ctx, ev); err != nil {
			t.Fatalf("publish %s: %v", ev.Kind, err)
		}
	}

	entries, err := journal.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("ticks must not be journaled, got %d entries", len(entries))
	}
	latest := entries[0]
	if latest.Kind != domain.EventTimerFinished || latest.Duration != 90*time.Minute || !latest.At.Equal(start.Add(90*time.Minute)) {
		t.Fatalf("unexpected latest entry %+v", latest)
	}
	if len(latest.Subjects) != 2 || latest.Subjects[0] != "Math HL" {
		t.Fatalf("unexpected subjects %v", latest.Subjects)
	}
	if entries[1].Detail != "30m" {
		t.Fatalf("milestone detail must name the mark, got %q", entries[1].Detail)
	}
	limited, _ := journal.Recent(ctx, 1)
	if len(limited) != 1 {
		t.Fatalf("limit not applied: %d", len(limited))
	}
}

func TestYAMLRosterSourceLoads(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "roster.yaml")
	content := `subjects:
  - name: Math
    level: HL
    sections:
      - {name: Paper 1, hours: 2, minutes: 0, reading_minutes: 5}
      - {name: Paper 2, hours: 1, minutes: 30}
  - name: Physics
    level: sl
    sections:
      - name: Paper 1
        minutes: 45
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	entries, err := examout.NewYAMLRosterSource().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 2 || entries[0].Level != domain.LevelHL || entries[1].Level != domain.LevelSL {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if got := entries[0].Sections[0]; got.Hours != 2 || got.ReadingMinutes != 5 {
		t.Fatalf("unexpected section %+v", got)
	}
	if entries[1].Sections[0].Duration() != 45*time.Minute {
		t.Fatalf("unexpected physics duration")
	}

	if _, err := examout.NewYAMLRosterSource().Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(bad, []byte("subjects:\n  - name: Art\n    level: AP\n"), 0o644)
	if _, err := examout.NewYAMLRosterSource().Load(context.Background(), bad); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid level, got %v", err)
	}
}

func TestMarkdownReportSinkWritesFinishedTimers(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	sink := examout.NewMarkdownReportSink(dir)
	start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	snap := finishedSnapshot(t, start)
	end := start.Add(90 * time.Minute)

	if err := sink.Publish(context.Background(), domain.Event{Kind: domain.EventTimerStarted, At: start, Snapshot: snap}); err != nil {
		t.Fatalf("publish start: %v", err)
	}
	if err := sink.Publish(context.Background(), domain.Event{Kind: domain.EventTimerFinished, At: end, Snapshot: snap}); err != nil {
		t.Fatalf("publish finish: %v", err)
	}
	path := filepath.Join(dir, "2026", "05", "04", "103000-math-hl-bio-sl.md")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var meta struct {
		TimerID       string   `yaml:"timer_id"`
		Duration      string   `yaml:"duration"`
		PausedSeconds int64    `yaml:"paused_seconds"`
		Subjects      []string `yaml:"subjects"`
	}
	body, err := markdown.Decode(string(raw), &meta)
	if err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if meta.TimerID != "timer-1" || meta.Duration != "01h 30m" || len(meta.Subjects) != 2 {
		t.Fatalf("unexpected frontmatter %+v", meta)
	}
	if !strings.Contains(body, "| Bio SL | Paper 2 (+5m reading) |") {
		t.Fatalf("unexpected body:\n%s", body)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*", "*", "*", "*.md"))
	if len(matches) != 1 {
		t.Fatalf("only finished timers produce reports, got %v", matches)
	}
}

func TestMarkdownReportsListNewestFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	sink := examout.NewMarkdownReportSink(dir)
	if reports, err := sink.RecentReports(ctx, 5); err != nil || len(reports) != 0 {
		t.Fatalf("no reports written yet, got %v (%v)", reports, err)
	}

	start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	snap := finishedSnapshot(t, start)
	for _, end := range []time.Time{start.Add(90 * time.Minute), start.Add(3 * time.Hour), start.Add(26 * time.Hour)} {
		if _, err := sink.Write(snap, end); err != nil {
			t.Fatalf("write report: %v", err)
		}
	}

	reports, err := sink.RecentReports(ctx, 2)
	if err != nil {
		t.Fatalf("recent reports: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("limit must cap the listing, got %d", len(reports))
	}
	newest := reports[0]
	if !newest.EndedAt.Equal(start.Add(26*time.Hour)) || !reports[1].EndedAt.Equal(start.Add(3*time.Hour)) {
		t.Fatalf("expected newest first, got %v then %v", newest.EndedAt, reports[1].EndedAt)
	}
	if newest.TimerID != "timer-1" || newest.Duration != "01h 30m" || !newest.StartedAt.Equal(start) || len(newest.Subjects) != 2 {
		t.Fatalf("unexpected summary %+v", newest)
	}
}

func TestRosterWatcherSignalsOnWrite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.yaml")
	if err := os.WriteFile(path, []byte("subjects: []\n"), 0o644); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	watcher, err := examout.NewRosterWatcher(path, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer watcher.Close()
	watcher.SetDebounce(20 * time.Millisecond)
	watcher.Start(context.Background())

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write other: %v", err)
	}
	select {
	case <-watcher.Changes():
		t.Fatalf("unrelated file must not signal")
	case <-time.After(200 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte("subjects:\n  - name: Math\n    level: HL\n"), 0o644); err != nil {
		t.Fatalf("rewrite roster: %v", err)
	}
	select {
	case <-watcher.Changes():
	case <-time.After(5 * time.Second):
		t.Fatalf("expected a change signal")
	}
}
