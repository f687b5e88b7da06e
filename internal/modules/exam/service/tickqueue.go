package service

import (
	"sort"
	"time"
)

type EntryKind uint8

const (
	EntryStart EntryKind = iota + 1
	EntryTick
)

func (k EntryKind) String() string {
	switch k {
	case EntryStart:
		return "start"
	case EntryTick:
		return "tick"
	default:
		return "unknown"
	}
}

type QueueEntry struct {
	TimerID string
	Kind    EntryKind
	Due     time.Time
}

type queueKey struct {
	timerID string
	kind    EntryKind
}

// TickQueue holds at most one entry per timer and kind. Cancelling a timer
// drops its entries, so nothing scheduled for it can fire afterwards.
type TickQueue struct {
	entries map[queueKey]time.Time
}

func NewTickQueue() *TickQueue {
	return &TickQueue{entries: make(map[queueKey]time.Time)}
}

// Schedule arms or re-arms an entry. It fires on the first Due call at or
// after due.
func (q *TickQueue) Schedule(timerID string, kind EntryKind, due time.Time) {
	q.entries[queueKey{timerID: timerID, kind: kind}] = due
}

func (q *TickQueue) Cancel(timerID string) {
	delete(q.entries, queueKey{timerID: timerID, kind: EntryStart})
	delete(q.entries, queueKey{timerID: timerID, kind: EntryTick})
}

func (q *TickQueue) CancelKind(timerID string, kind EntryKind) {
	delete(q.entries, queueKey{timerID: timerID, kind: kind})
}

func (q *TickQueue) Lookup(timerID string, kind EntryKind) (time.Time, bool) {
	due, ok := q.entries[queueKey{timerID: timerID, kind: kind}]
	return due, ok
}

func (q *TickQueue) Len() int { return len(q.entries) }

// Due removes and returns every entry due at now, earliest first. Starts sort
// ahead of ticks at the same instant.
func (q *TickQueue) Due(now time.Time) []QueueEntry {
	var out []QueueEntry
	for key, due := range q.entries {
		if due.After(now) {
			continue
		}
		out = append(out, QueueEntry{TimerID: key.timerID, Kind: key.kind, Due: due})
		delete(q.entries, key)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Due.Equal(out[j].Due) {
			return out[i].Due.Before(out[j].Due)
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].TimerID < out[j].TimerID
	})
	return out
}
