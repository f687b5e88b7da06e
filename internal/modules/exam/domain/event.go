package domain

import "time"

type EventKind string

const (
	EventTimerCreated   EventKind = "timer_created"
	EventTimerScheduled EventKind = "timer_scheduled"
	EventTimerStarted   EventKind = "timer_started"
	EventTimerPaused    EventKind = "timer_paused"
	EventTimerResumed   EventKind = "timer_resumed"
	EventTimerStopped   EventKind = "timer_stopped"
	EventTimerTick      EventKind = "timer_tick"
	EventTimerMilestone EventKind = "timer_milestone"
	EventTimerFinished  EventKind = "timer_finished"
	EventTimerRemoved   EventKind = "timer_removed"
	EventMembersChanged EventKind = "members_changed"
	EventTimersAdvanced EventKind = "timers_advanced"
)

// Event is emitted by the scheduler for every observable change. Timers never
// call back into the scheduler; the scheduler reads their tick results and
// publishes events instead.
type Event struct {
	Kind      EventKind
	At        time.Time
	TimerID   string
	Snapshot  TimerSnapshot
	Milestone Milestone
	Detail    string
}

// Structural reports whether the event changes the timer set or membership,
// as opposed to a periodic progress update.
func (e Event) Structural() bool {
	return e.Kind != EventTimerTick
}
