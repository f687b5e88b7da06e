package out

import (
	"context"

	"examclock/internal/modules/exam/domain"
)

// EventSink receives every event the scheduler emits. A failing sink never
// fails the operator action that produced the event.
type EventSink interface {
	Publish(ctx context.Context, event domain.Event) error
}

type RosterSource interface {
	Load(ctx context.Context, path string) ([]domain.RosterEntry, error)
}

type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]domain.JournalEntry, error)
}

// ReportReader lists finished-timer reports, newest first.
type ReportReader interface {
	RecentReports(ctx context.Context, limit int) ([]domain.ReportSummary, error)
}
