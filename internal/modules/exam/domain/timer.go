package domain

import (
	"fmt"
	"time"

	apperrors "examclock/internal/platform/errors"
)

const (
	ThirtyMinuteWarning = 30 * time.Minute
	FiveMinuteWarning   = 5 * time.Minute
)

type TimerState uint8

const (
	TimerCreated TimerState = iota
	TimerRunning
	TimerPaused
	TimerFinished
	TimerStopped
)

func (s TimerState) String() string {
	switch s {
	case TimerCreated:
		return "created"
	case TimerRunning:
		return "running"
	case TimerPaused:
		return "paused"
	case TimerFinished:
		return "finished"
	case TimerStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type Milestone uint8

const (
	MilestoneThirtyMinutes Milestone = iota + 1
	MilestoneFiveMinutes
)

func (m Milestone) String() string {
	switch m {
	case MilestoneThirtyMinutes:
		return "30m"
	case MilestoneFiveMinutes:
		return "5min"
	default:
		return "unknown"
	}
}

// Member is a timer's label for one grouped subject. It references the
// subject by id only; the registry owns the subject itself.
type Member struct {
	SubjectID   int64
	Name        string
	Level       Level
	SectionID   int64
	SectionName string
}

func (m Member) DisplayName() string {
	return DisplayName(m.Name, m.Level)
}

func MemberFor(subject *Subject, section *Section) Member {
	return Member{
		SubjectID:   subject.ID,
		Name:        subject.Name,
		Level:       subject.Level,
		SectionID:   section.ID,
		SectionName: section.Label(),
	}
}

// TickResult reports what a single tick observed.
type TickResult struct {
	Milestones []Milestone
	Finished   bool
}

// Timer counts down one duration shared by its members.
//
// created -> running <-> paused, running -> finished, and any non-finished
// state -> stopped. Pausing shifts start, end and the warning marks on resume
// so the allotted duration is preserved.
type Timer struct {
	id       string
	duration time.Duration
	members  []Member
	state    TimerState

	start    time.Time
	end      time.Time
	pausedAt time.Time
	paused   time.Duration

	thirty    time.Time
	five      time.Time
	hasThirty bool
	hasFive   bool

	warnedThirty bool
	warnedFive   bool

	stoppedElapsed time.Duration
}

func NewTimer(id string, duration time.Duration) *Timer {
	return &Timer{id: id, duration: duration, state: TimerCreated}
}

func (t *Timer) ID() string              { return t.id }
func (t *Timer) Duration() time.Duration { return t.duration }
func (t *Timer) State() TimerState       { return t.state }
func (t *Timer) Started() bool           { return t.state != TimerCreated }
func (t *Timer) Finished() bool          { return t.state == TimerFinished }
func (t *Timer) Empty() bool             { return len(t.members) == 0 }

// Live reports whether the countdown is in progress (running or paused).
func (t *Timer) Live() bool {
	return t.state == TimerRunning || t.state == TimerPaused
}

func (t *Timer) Members() []Member {
	out := make([]Member, len(t.members))
	copy(out, t.members)
	return out
}

func (t *Timer) HasMember(subjectID int64) bool {
	return t.memberIndex(subjectID) >= 0
}

// AddMember admits a subject while the timer has not started yet.
func (t *Timer) AddMember(member Member) error {
	if t.state != TimerCreated {
		return fmt.Errorf("%w: timer %s already %s", apperrors.ErrInvalidState, t.id, t.state)
	}
	if t.HasMember(member.SubjectID) {
		return fmt.Errorf("%w: subject %d already on timer %s", apperrors.ErrDuplicate, member.SubjectID, t.id)
	}
	t.members = append(t.members, member)
	return nil
}

func (t *Timer) RemoveMember(subjectID int64) bool {
	idx := t.memberIndex(subjectID)
	if idx < 0 {
		return false
	}
	t.members = append(t.members[:idx], t.members[idx+1:]...)
	return true
}

// RelabelMember patches the name and level shown for a member in place.
func (t *Timer) RelabelMember(subjectID int64, name string, level Level) bool {
	idx := t.memberIndex(subjectID)
	if idx < 0 {
		return false
	}
	t.members[idx].Name = name
	t.members[idx].Level = level
	return true
}

func (t *Timer) memberIndex(subjectID int64) int {
	for i, m := range t.members {
		if m.SubjectID == subjectID {
			return i
		}
	}
	return -1
}

func (t *Timer) Start(now time.Time) error {
	if t.state != TimerCreated {
		return t.transitionErr("start")
	}
	t.start = now
	t.end = now.Add(t.duration)
	t.hasThirty = t.duration > ThirtyMinuteWarning
	t.hasFive = t.duration > FiveMinuteWarning
	if t.hasThirty {
		t.thirty = t.end.Add(-ThirtyMinuteWarning)
	}
	if t.hasFive {
		t.five = t.end.Add(-FiveMinuteWarning)
	}
	t.state = TimerRunning
	return nil
}

func (t *Timer) Pause(now time.Time) error {
	if t.state != TimerRunning {
		return t.transitionErr("pause")
	}
	t.pausedAt = now
	t.state = TimerPaused
	return nil
}

// Resume continues a paused timer and returns how long it was paused.
func (t *Timer) Resume(now time.Time) (time.Duration, error) {
	if t.state != TimerPaused {
		return 0, t.transitionErr("resume")
	}
	shift := now.Sub(t.pausedAt)
	if shift < 0 {
		shift = 0
	}
	t.start = t.start.Add(shift)
	t.end = t.end.Add(shift)
	t.thirty = t.thirty.Add(shift)
	t.five = t.five.Add(shift)
	t.paused += shift
	t.pausedAt = time.Time{}
	t.state = TimerRunning
	return shift, nil
}

// Stop cancels the countdown. Members keep their section unrun.
func (t *Timer) Stop(now time.Time) error {
	if t.state == TimerFinished || t.state == TimerStopped {
		return t.transitionErr("stop")
	}
	t.stoppedElapsed = t.Elapsed(now)
	t.state = TimerStopped
	return nil
}

// Tick advances a running timer to now. Milestones are reported once each;
// Finished is true only on the tick that completes the timer.
func (t *Timer) Tick(now time.Time) TickResult {
	var res TickResult
	if t.state != TimerRunning {
		return res
	}
	if t.hasThirty && !t.warnedThirty && !now.Before(t.thirty) {
		t.warnedThirty = true
		res.Milestones = append(res.Milestones, MilestoneThirtyMinutes)
	}
	if t.hasFive && !t.warnedFive && !now.Before(t.five) {
		t.warnedFive = true
		res.Milestones = append(res.Milestones, MilestoneFiveMinutes)
	}
	if !now.Before(t.end) {
		t.state = TimerFinished
		res.Finished = true
	}
	return res
}

func (t *Timer) Elapsed(now time.Time) time.Duration {
	var elapsed time.Duration
	switch t.state {
	case TimerCreated:
		return 0
	case TimerFinished:
		return t.duration
	case TimerStopped:
		return t.stoppedElapsed
	case TimerPaused:
		elapsed = t.pausedAt.Sub(t.start)
	default:
		elapsed = now.Sub(t.start)
	}
	if elapsed < 0 {
		return 0
	}
	if elapsed > t.duration {
		return t.duration
	}
	return elapsed
}

func (t *Timer) Remaining(now time.Time) time.Duration {
	return t.duration - t.Elapsed(now)
}

func (t *Timer) Percent(now time.Time) float64 {
	if t.duration <= 0 {
		return 0
	}
	return 100 * float64(t.Elapsed(now)) / float64(t.duration)
}

func (t *Timer) StartTime() time.Time       { return t.start }
func (t *Timer) EndTime() time.Time         { return t.end }
func (t *Timer) PausedTotal() time.Duration { return t.paused }

// Marks returns the 30- and 5-minute warning times; nil when the duration is
// too short for that warning or the timer has not started.
func (t *Timer) Marks() (thirty, five *time.Time) {
	if t.hasThirty {
		v := t.thirty
		thirty = &v
	}
	if t.hasFive {
		v := t.five
		five = &v
	}
	return thirty, five
}

func (t *Timer) Snapshot(now time.Time) TimerSnapshot {
	thirty, five := t.Marks()
	return TimerSnapshot{
		ID:               t.id,
		Duration:         t.duration,
		State:            t.state,
		Elapsed:          t.Elapsed(now),
		Remaining:        t.Remaining(now),
		Percent:          t.Percent(now),
		Members:          t.Members(),
		StartTime:        t.start,
		EndTime:          t.end,
		ThirtyMinuteMark: thirty,
		FiveMinuteMark:   five,
		PausedTotal:      t.paused,
	}
}

func (t *Timer) transitionErr(op string) error {
	return fmt.Errorf("%w: cannot %s timer %s while %s", apperrors.ErrInvalidState, op, t.id, t.state)
}

type TimerSnapshot struct {
	ID               string
	Duration         time.Duration
	State            TimerState
	Elapsed          time.Duration
	Remaining        time.Duration
	Percent          float64
	Members          []Member
	StartTime        time.Time
	EndTime          time.Time
	ThirtyMinuteMark *time.Time
	FiveMinuteMark   *time.Time
	PausedTotal      time.Duration
	ScheduledStart   *time.Time
}

func (s TimerSnapshot) SubjectIDs() []int64 {
	out := make([]int64, 0, len(s.Members))
	for _, m := range s.Members {
		out = append(out, m.SubjectID)
	}
	return out
}
