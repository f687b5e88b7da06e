package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"examclock/internal/modules/exam/domain"

	_ "modernc.org/sqlite"
)

const journalTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// SQLiteJournal appends lifecycle events to an sqlite table. Ticks are not
// recorded. The table is write-mostly; the engine never reads it back.
type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	journal := &SQLiteJournal{db: db}
	if err := journal.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return journal, nil
}

func (j *SQLiteJournal) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  at TEXT NOT NULL,
  kind TEXT NOT NULL,
  timer_id TEXT,
  duration_seconds INTEGER NOT NULL DEFAULT 0,
  subjects TEXT NOT NULL DEFAULT '[]',
  detail TEXT
);
CREATE INDEX IF NOT EXISTS idx_events_timer ON events(timer_id);
`
	if _, err := j.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create events table: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) Publish(ctx context.Context, event domain.Event) error {
	if !event.Structural() {
		return nil
	}
	subjects := make([]string, 0, len(event.Snapshot.Members))
	for _, member := range event.Snapshot.Members {
		subjects = append(subjects, member.DisplayName())
	}
	raw, err := json.Marshal(subjects)
	if err != nil {
		return fmt.Errorf("encode subjects: %w", err)
	}
	detail := event.Detail
	if event.Kind == domain.EventTimerMilestone {
		detail = event.Milestone.String()
	}
	const stmt = `
INSERT INTO events (at, kind, timer_id, duration_seconds, subjects, detail)
VALUES (?, ?, ?, ?, ?, ?);
`
	_, err = j.db.ExecContext(ctx, stmt,
		event.At.Format(journalTimeLayout),
		string(event.Kind),
		event.TimerID,
		int64(event.Snapshot.Duration/time.Second),
		string(raw),
		detail,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Recent returns the newest entries first.
func (j *SQLiteJournal) Recent(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	const query = `
SELECT id, at, kind, COALESCE(timer_id, ''), duration_seconds, subjects, COALESCE(detail, '')
FROM events
ORDER BY id DESC
LIMIT ?;
`
	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []domain.JournalEntry
	for rows.Next() {
		var (
			entry    domain.JournalEntry
			at, kind string
			seconds  int64
			subjects string
		)
		if err := rows.Scan(&entry.ID, &at, &kind, &entry.TimerID, &seconds, &subjects, &entry.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		parsed, err := time.Parse(journalTimeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("parse event time %q: %w", at, err)
		}
		entry.At = parsed
		entry.Kind = domain.EventKind(kind)
		entry.Duration = time.Duration(seconds) * time.Second
		if err := json.Unmarshal([]byte(subjects), &entry.Subjects); err != nil {
			return nil, fmt.Errorf("decode subjects: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
