package in

import (
	"context"

	"examclock/internal/modules/exam/dto"
)

type Usecase interface {
	CreateSubject(ctx context.Context, input dto.CreateSubjectInput) (dto.SubjectOutput, error)
	ReplaceSections(ctx context.Context, input dto.ReplaceSectionsInput) (dto.SubjectOutput, error)
	RenameSubject(ctx context.Context, input dto.RenameSubjectInput) (dto.SubjectOutput, error)
	ToggleLevel(ctx context.Context, subjectID int64) (dto.SubjectOutput, error)
	RemoveSubject(ctx context.Context, subjectID int64) error
	ListSubjects(ctx context.Context) ([]dto.SubjectOutput, error)
	ImportRoster(ctx context.Context, input dto.ImportRosterInput) (dto.ImportOutput, error)

	StartAll(ctx context.Context) (dto.BoardOutput, error)
	StartTimer(ctx context.Context, timerID string) (dto.BoardOutput, error)
	ScheduleStart(ctx context.Context, input dto.ScheduleStartInput) (dto.BoardOutput, error)
	PauseAll(ctx context.Context) (dto.BoardOutput, error)
	ResumeAll(ctx context.Context) (dto.BoardOutput, error)
	StopAll(ctx context.Context) (dto.BoardOutput, error)
	StopTimer(ctx context.Context, timerID string) (dto.BoardOutput, error)
	Advance(ctx context.Context) (dto.BoardOutput, error)
	Tick(ctx context.Context) (dto.BoardOutput, error)
	Board(ctx context.Context) (dto.BoardOutput, error)

	RecentEvents(ctx context.Context, limit int) ([]dto.JournalEntryOutput, error)
	RecentReports(ctx context.Context, limit int) ([]dto.ReportOutput, error)
}
