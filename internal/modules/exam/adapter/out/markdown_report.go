package out

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"examclock/internal/modules/exam/domain"
	"examclock/internal/platform/markdown"
	"examclock/internal/platform/slug"
)

// MarkdownReportSink writes one note per finished timer under
// <dir>/YYYY/MM/DD/HHMMSS-<subjects>.md.
type MarkdownReportSink struct {
	dir string
}

func NewMarkdownReportSink(dir string) MarkdownReportSink {
	return MarkdownReportSink{dir: dir}
}

func (s MarkdownReportSink) Publish(_ context.Context, event domain.Event) error {
	if event.Kind != domain.EventTimerFinished {
		return nil
	}
	_, err := s.Write(event.Snapshot, event.At)
	return err
}

// Write renders the report for snap and returns its path.
func (s MarkdownReportSink) Write(snap domain.TimerSnapshot, endedAt time.Time) (string, error) {
	names := make([]string, 0, len(snap.Members))
	for _, member := range snap.Members {
		names = append(names, member.DisplayName())
	}
	path := filepath.Join(s.dir,
		endedAt.Format("2006"), endedAt.Format("01"), endedAt.Format("02"),
		fmt.Sprintf("%s-%s.md", endedAt.Format("150405"), slug.Make(names...)))

	note, err := markdown.Render([]markdown.Field{
		{Key: "timer_id", Value: snap.ID},
		{Key: "duration", Value: domain.FormatDurationLabel(snap.Duration)},
		{Key: "started_at", Value: snap.StartTime.Format(time.RFC3339)},
		{Key: "ended_at", Value: endedAt.Format(time.RFC3339)},
		{Key: "paused_seconds", Value: int64(snap.PausedTotal / time.Second)},
		{Key: "subjects", Value: names},
	}, reportBody(snap, names))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(note), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

type reportMeta struct {
	TimerID       string   `yaml:"timer_id"`
	Duration      string   `yaml:"duration"`
	StartedAt     string   `yaml:"started_at"`
	EndedAt       string   `yaml:"ended_at"`
	PausedSeconds int64    `yaml:"paused_seconds"`
	Subjects      []string `yaml:"subjects"`
}

// RecentReports reads the frontmatter of the newest reports. File names sort
// by the time the timer ended, so no report body is parsed. A report
// directory that does not exist yet holds no reports.
func (s MarkdownReportSink) RecentReports(ctx context.Context, limit int) ([]domain.ReportSummary, error) {
	var paths []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan reports: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	if limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}

	out := make([]domain.ReportSummary, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read report: %w", err)
		}
		var meta reportMeta
		if _, err := markdown.Decode(string(raw), &meta); err != nil {
			return nil, fmt.Errorf("decode report %s: %w", filepath.Base(path), err)
		}
		summary := domain.ReportSummary{
			Path:          path,
			TimerID:       meta.TimerID,
			Duration:      meta.Duration,
			PausedSeconds: meta.PausedSeconds,
			Subjects:      meta.Subjects,
		}
		// Unparseable times stay zero; the rest of the report is still useful.
		summary.StartedAt, _ = time.Parse(time.RFC3339, meta.StartedAt)
		summary.EndedAt, _ = time.Parse(time.RFC3339, meta.EndedAt)
		out = append(out, summary)
	}
	return out, nil
}

func reportBody(snap domain.TimerSnapshot, names []string) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "# %s\n\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "%s\n\n", snap.InfoText())
	if text := snap.MilestoneText(); text != "" {
		fmt.Fprintf(&b, "Warnings: %s\n\n", text)
	}
	b.WriteString("| Subject | Section |\n|---|---|\n")
	for _, member := range snap.Members {
		fmt.Fprintf(&b, "| %s | %s |\n", member.DisplayName(), member.SectionName)
	}
	return b.String()
}
