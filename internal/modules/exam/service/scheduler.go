package service

import (
	"fmt"
	"strings"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"examclock/internal/modules/exam/domain"
	"examclock/internal/platform/clock"
	apperrors "examclock/internal/platform/errors"
	"examclock/internal/platform/id"
)

// TickEvery spaces the tick entries of a running timer. A timer's first tick
// after start or resume is due at once.
const TickEvery = time.Second

// SubjectState is a read-only view of one registered subject.
type SubjectState struct {
	Subject *domain.Subject
	Pool    domain.Pool
	TimerID string
}

// Scheduler owns the subject registry and the live timer list. Every
// mutation goes through its methods; it is not safe for concurrent use.
type Scheduler struct {
	clock    clock.Clock
	seq      id.Sequence
	timerIDs id.Generator
	logger   hclog.Logger

	registry *domain.Registry
	timers   []*domain.Timer
	queue    *TickQueue
	outbox   []domain.Event
}

func NewScheduler(clk clock.Clock, seq id.Sequence, timerIDs id.Generator, logger hclog.Logger) *Scheduler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Scheduler{
		clock:    clk,
		seq:      seq,
		timerIDs: timerIDs,
		logger:   logger.Named("scheduler"),
		registry: domain.NewRegistry(),
		queue:    NewTickQueue(),
	}
}

func (s *Scheduler) Now() time.Time { return s.clock.Now() }

// Drain hands over the events emitted since the last call.
func (s *Scheduler) Drain() []domain.Event {
	out := s.outbox
	s.outbox = nil
	return out
}

func (s *Scheduler) CreateSubject(name string, level domain.Level) (*domain.Subject, error) {
	if existing, ok := s.registry.FindByIdentity(name, level); ok {
		return nil, fmt.Errorf("%w: subject %q", apperrors.ErrDuplicate, existing.DisplayName())
	}
	subject, err := domain.NewSubject(s.seq.Next(), name, level, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.registry.Add(subject); err != nil {
		return nil, err
	}
	s.logger.Debug("subject created", "subject", subject.ID, "name", subject.DisplayName())
	return subject, nil
}

// ReplaceSections swaps a subject's section list and regroups. A subject on
// a running or paused timer cannot be edited; one waiting on a not-yet-started
// timer is detached first.
func (s *Scheduler) ReplaceSections(subjectID int64, specs []domain.SectionSpec) error {
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return err
		}
	}
	subject, _, err := s.registry.Get(subjectID)
	if err != nil {
		return err
	}
	for _, timer := range s.timersFor(subjectID) {
		if timer.Live() {
			return fmt.Errorf("%w: %s is on running timer %s", apperrors.ErrInvalidState, subject.DisplayName(), timer.ID())
		}
	}
	now := s.clock.Now()
	for _, timer := range s.timersFor(subjectID) {
		if timer.State() == domain.TimerCreated {
			s.detach(timer, subjectID, now)
		}
	}

	s.setSections(subject, specs)
	s.Group()
	return nil
}

// ImportSubject registers a subject together with its sections without
// grouping. Nothing is registered when any section is invalid. Callers run
// Group once after a batch.
func (s *Scheduler) ImportSubject(name string, level domain.Level, specs []domain.SectionSpec) (*domain.Subject, error) {
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
	}
	subject, err := s.CreateSubject(name, level)
	if err != nil {
		return nil, err
	}
	s.setSections(subject, specs)
	return subject, nil
}

func (s *Scheduler) setSections(subject *domain.Subject, specs []domain.SectionSpec) {
	sections := make([]*domain.Section, 0, len(specs))
	for _, spec := range specs {
		sections = append(sections, domain.NewSection(s.seq.Next(), spec))
	}
	subject.ReplaceSections(sections)
	s.logger.Debug("sections replaced", "subject", subject.DisplayName(), "sections", len(sections))
}

// RenameSubject renames a registered subject and relabels it on every timer
// listing it. A subject that sits on no timer is renamed all the same; callers
// that need the timer use TimerForSubject, which reports ErrNotFound.
func (s *Scheduler) RenameSubject(subjectID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: subject name is required", apperrors.ErrInvalidInput)
	}
	subject, _, err := s.registry.Get(subjectID)
	if err != nil {
		return err
	}
	if other, ok := s.registry.FindByIdentity(name, subject.Level); ok && other.ID != subjectID {
		return fmt.Errorf("%w: subject %q", apperrors.ErrDuplicate, other.DisplayName())
	}
	subject.Name = name
	s.relabel(subject)
	return nil
}

// ToggleLevel flips HL and SL with the same relabel rules as RenameSubject.
func (s *Scheduler) ToggleLevel(subjectID int64) error {
	subject, _, err := s.registry.Get(subjectID)
	if err != nil {
		return err
	}
	level := subject.Level.Toggle()
	if other, ok := s.registry.FindByIdentity(subject.Name, level); ok && other.ID != subjectID {
		return fmt.Errorf("%w: subject %q", apperrors.ErrDuplicate, other.DisplayName())
	}
	subject.Level = level
	s.relabel(subject)
	return nil
}

// RemoveSubject forgets a subject and drops it from every timer listing it.
// A timer left without members is destroyed.
func (s *Scheduler) RemoveSubject(subjectID int64) error {
	subject, err := s.registry.Remove(subjectID)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	timers := s.timersFor(subjectID)
	if len(timers) == 0 {
		s.logger.Debug("removed subject had no timer", "subject", subject.DisplayName())
	}
	for _, timer := range timers {
		s.detach(timer, subjectID, now)
	}
	s.logger.Info("subject removed", "subject", subject.DisplayName())
	return nil
}

// Group runs one grouping pass over the idle pool.
func (s *Scheduler) Group() GroupResult {
	now := s.clock.Now()
	res := Group(s.registry.Idle(), s.timers, func(d time.Duration) *domain.Timer {
		return domain.NewTimer(s.timerIDs.New(), d)
	})
	for _, timer := range res.Created {
		s.timers = append(s.timers, timer)
		s.logger.Debug("timer created", "timer", timer.ID(), "duration", timer.Duration(), "subjects", memberNames(timer))
		s.emit(domain.EventTimerCreated, timer, now, "")
	}
	for _, timer := range res.Extended {
		s.logger.Debug("timer extended", "timer", timer.ID(), "subjects", memberNames(timer))
		s.emit(domain.EventMembersChanged, timer, now, "")
	}
	return res
}

// StartAll starts every timer that has not started yet.
func (s *Scheduler) StartAll() int {
	now := s.clock.Now()
	started := 0
	for _, timer := range s.timers {
		if timer.State() != domain.TimerCreated {
			continue
		}
		if err := s.start(timer, now); err != nil {
			s.logger.Warn("start failed", "timer", timer.ID(), "error", err)
			continue
		}
		started++
	}
	return started
}

func (s *Scheduler) StartTimer(timerID string) error {
	timer, err := s.timer(timerID)
	if err != nil {
		return err
	}
	return s.start(timer, s.clock.Now())
}

// ScheduleStart arms a not-yet-started timer to start once the clock reaches
// at. A time in the past starts it on the next tick.
func (s *Scheduler) ScheduleStart(timerID string, at time.Time) error {
	timer, err := s.timer(timerID)
	if err != nil {
		return err
	}
	if timer.State() != domain.TimerCreated {
		return fmt.Errorf("%w: timer %s already %s", apperrors.ErrInvalidState, timerID, timer.State())
	}
	s.queue.Schedule(timerID, EntryStart, at)
	s.logger.Info("timer scheduled", "timer", timerID, "at", at.Format(time.RFC3339))
	s.emit(domain.EventTimerScheduled, timer, s.clock.Now(), at.Format("15:04:05"))
	return nil
}

func (s *Scheduler) PauseAll() int {
	now := s.clock.Now()
	paused := 0
	for _, timer := range s.timers {
		if timer.State() != domain.TimerRunning {
			continue
		}
		if err := timer.Pause(now); err != nil {
			continue
		}
		s.queue.CancelKind(timer.ID(), EntryTick)
		paused++
		s.logger.Info("timer paused", "timer", timer.ID())
		s.emit(domain.EventTimerPaused, timer, now, "")
	}
	return paused
}

func (s *Scheduler) ResumeAll() int {
	now := s.clock.Now()
	resumed := 0
	for _, timer := range s.timers {
		if timer.State() != domain.TimerPaused {
			continue
		}
		shift, err := timer.Resume(now)
		if err != nil {
			continue
		}
		s.queue.Schedule(timer.ID(), EntryTick, now)
		resumed++
		s.logger.Info("timer resumed", "timer", timer.ID(), "paused_for", shift)
		s.emit(domain.EventTimerResumed, timer, now, shift.String())
	}
	return resumed
}

// StopAll cancels every running or paused timer. Members go back to the idle
// pool with their section unrun and are regrouped.
func (s *Scheduler) StopAll() int {
	now := s.clock.Now()
	var live []*domain.Timer
	for _, timer := range s.timers {
		if timer.Live() {
			live = append(live, timer)
		}
	}
	for _, timer := range live {
		s.stop(timer, now)
	}
	if len(live) > 0 {
		s.Group()
	}
	return len(live)
}

func (s *Scheduler) StopTimer(timerID string) error {
	timer, err := s.timer(timerID)
	if err != nil {
		return err
	}
	if !timer.Live() {
		return fmt.Errorf("%w: timer %s is %s", apperrors.ErrInvalidState, timerID, timer.State())
	}
	s.stop(timer, s.clock.Now())
	s.Group()
	return nil
}

// Advance drops finished timers and regroups to reveal the next sections.
func (s *Scheduler) Advance() int {
	now := s.clock.Now()
	kept := s.timers[:0]
	var removed []*domain.Timer
	for _, timer := range s.timers {
		if timer.Finished() {
			removed = append(removed, timer)
			continue
		}
		kept = append(kept, timer)
	}
	s.timers = kept
	for _, timer := range removed {
		s.queue.Cancel(timer.ID())
		s.emit(domain.EventTimerRemoved, timer, now, "advanced")
	}
	s.Group()
	s.logger.Info("advanced", "removed", len(removed), "timers", len(s.timers))
	s.outbox = append(s.outbox, domain.Event{Kind: domain.EventTimersAdvanced, At: now, Detail: fmt.Sprintf("%d", len(removed))})
	return len(removed)
}

// CanAdvance reports whether any timer has finished and waits to be cleared.
func (s *Scheduler) CanAdvance() bool {
	for _, timer := range s.timers {
		if timer.Finished() {
			return true
		}
	}
	return false
}

// Tick processes every due queue entry. Milestones are emitted before the
// finish they precede; finished members are released and the idle pool is
// regrouped once after all finishes of this tick.
func (s *Scheduler) Tick() {
	now := s.clock.Now()
	finished := 0
	for _, entry := range s.queue.Due(now) {
		timer, err := s.timer(entry.TimerID)
		if err != nil {
			continue
		}
		switch entry.Kind {
		case EntryStart:
			if err := s.start(timer, now); err != nil {
				s.logger.Warn("scheduled start skipped", "timer", timer.ID(), "error", err)
			}
		case EntryTick:
			res := timer.Tick(now)
			for _, milestone := range res.Milestones {
				s.logger.Info("timer milestone", "timer", timer.ID(), "mark", milestone.String())
				s.outbox = append(s.outbox, domain.Event{
					Kind:      domain.EventTimerMilestone,
					At:        now,
					TimerID:   timer.ID(),
					Snapshot:  s.snapshot(timer, now),
					Milestone: milestone,
				})
			}
			if res.Finished {
				s.finish(timer, now)
				finished++
				continue
			}
			if timer.State() == domain.TimerRunning {
				s.queue.Schedule(timer.ID(), EntryTick, now.Add(TickEvery))
				s.emit(domain.EventTimerTick, timer, now, "")
			}
		}
	}
	if finished > 0 {
		s.Group()
	}
}

// finish completes the in-progress section of every member and returns them
// to the idle pool. Advancing stays an explicit operator step.
func (s *Scheduler) finish(timer *domain.Timer, now time.Time) {
	s.queue.Cancel(timer.ID())
	for _, member := range timer.Members() {
		subject, _, err := s.registry.Get(member.SubjectID)
		if err != nil {
			continue
		}
		subject.CompleteInProgress()
		_ = s.registry.Move(subject.ID, domain.PoolIdle)
	}
	s.logger.Info("timer finished", "timer", timer.ID(), "duration", timer.Duration(), "subjects", memberNames(timer))
	s.emit(domain.EventTimerFinished, timer, now, "")
}

func (s *Scheduler) start(timer *domain.Timer, now time.Time) error {
	if err := timer.Start(now); err != nil {
		return err
	}
	s.queue.CancelKind(timer.ID(), EntryStart)
	s.queue.Schedule(timer.ID(), EntryTick, now)
	for _, member := range timer.Members() {
		_ = s.registry.Move(member.SubjectID, domain.PoolActive)
	}
	s.logger.Info("timer started", "timer", timer.ID(), "duration", timer.Duration(), "subjects", memberNames(timer))
	s.emit(domain.EventTimerStarted, timer, now, "")
	return nil
}

func (s *Scheduler) stop(timer *domain.Timer, now time.Time) {
	if err := timer.Stop(now); err != nil {
		return
	}
	s.queue.Cancel(timer.ID())
	for _, member := range timer.Members() {
		subject, _, err := s.registry.Get(member.SubjectID)
		if err != nil {
			continue
		}
		subject.Release()
		_ = s.registry.Move(subject.ID, domain.PoolIdle)
	}
	s.removeTimer(timer)
	s.logger.Info("timer stopped", "timer", timer.ID(), "subjects", memberNames(timer))
	s.emit(domain.EventTimerStopped, timer, now, "")
}

// detach drops one member from timer and destroys the timer when it empties.
func (s *Scheduler) detach(timer *domain.Timer, subjectID int64, now time.Time) {
	if !timer.RemoveMember(subjectID) {
		return
	}
	if subject, _, err := s.registry.Get(subjectID); err == nil {
		if timer.State() != domain.TimerFinished {
			subject.Release()
		}
		if timer.Live() {
			_ = s.registry.Move(subjectID, domain.PoolIdle)
		}
	}
	if !timer.Empty() {
		s.emit(domain.EventMembersChanged, timer, now, "")
		return
	}
	s.queue.Cancel(timer.ID())
	s.removeTimer(timer)
	s.logger.Info("timer removed", "timer", timer.ID(), "reason", "no members left")
	s.emit(domain.EventTimerRemoved, timer, now, "empty")
}

func (s *Scheduler) relabel(subject *domain.Subject) {
	timers := s.timersFor(subject.ID)
	if len(timers) == 0 {
		s.logger.Debug("subject not grouped; nothing to relabel", "subject", subject.DisplayName())
		return
	}
	now := s.clock.Now()
	for _, timer := range timers {
		timer.RelabelMember(subject.ID, subject.Name, subject.Level)
		s.emit(domain.EventMembersChanged, timer, now, "")
	}
}

func (s *Scheduler) removeTimer(timer *domain.Timer) {
	for i, candidate := range s.timers {
		if candidate == timer {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			return
		}
	}
}

func (s *Scheduler) timer(timerID string) (*domain.Timer, error) {
	for _, timer := range s.timers {
		if timer.ID() == timerID {
			return timer, nil
		}
	}
	return nil, fmt.Errorf("%w: timer %s", apperrors.ErrNotFound, timerID)
}

func (s *Scheduler) timersFor(subjectID int64) []*domain.Timer {
	var out []*domain.Timer
	for _, timer := range s.timers {
		if timer.HasMember(subjectID) {
			out = append(out, timer)
		}
	}
	return out
}

// TimerForSubject finds the timer currently carrying a subject, preferring
// one that has not finished.
func (s *Scheduler) TimerForSubject(subjectID int64) (domain.TimerSnapshot, error) {
	var fallback *domain.Timer
	for _, timer := range s.timersFor(subjectID) {
		if !timer.Finished() {
			return s.snapshot(timer, s.clock.Now()), nil
		}
		fallback = timer
	}
	if fallback != nil {
		return s.snapshot(fallback, s.clock.Now()), nil
	}
	return domain.TimerSnapshot{}, fmt.Errorf("%w: subject %d is not on any timer", apperrors.ErrNotFound, subjectID)
}

// Timers returns snapshots of the live timer list in creation order.
func (s *Scheduler) Timers() []domain.TimerSnapshot {
	now := s.clock.Now()
	out := make([]domain.TimerSnapshot, 0, len(s.timers))
	for _, timer := range s.timers {
		out = append(out, s.snapshot(timer, now))
	}
	return out
}

func (s *Scheduler) Subjects() []SubjectState {
	all := s.registry.All()
	out := make([]SubjectState, 0, len(all))
	for _, subject := range all {
		_, pool, _ := s.registry.Get(subject.ID)
		state := SubjectState{Subject: subject, Pool: pool}
		if snap, err := s.TimerForSubject(subject.ID); err == nil {
			state.TimerID = snap.ID
		}
		out = append(out, state)
	}
	return out
}

func (s *Scheduler) Subject(subjectID int64) (SubjectState, error) {
	subject, pool, err := s.registry.Get(subjectID)
	if err != nil {
		return SubjectState{}, err
	}
	state := SubjectState{Subject: subject, Pool: pool}
	if snap, err := s.TimerForSubject(subjectID); err == nil {
		state.TimerID = snap.ID
	}
	return state, nil
}

// Pending reports whether any timer is still waiting, running or paused.
func (s *Scheduler) Pending() bool {
	for _, timer := range s.timers {
		if !timer.Finished() {
			return true
		}
	}
	return false
}

func (s *Scheduler) snapshot(timer *domain.Timer, now time.Time) domain.TimerSnapshot {
	snap := timer.Snapshot(now)
	if at, ok := s.queue.Lookup(timer.ID(), EntryStart); ok {
		snap.ScheduledStart = &at
	}
	return snap
}

func (s *Scheduler) emit(kind domain.EventKind, timer *domain.Timer, now time.Time, detail string) {
	s.outbox = append(s.outbox, domain.Event{
		Kind:     kind,
		At:       now,
		TimerID:  timer.ID(),
		Snapshot: s.snapshot(timer, now),
		Detail:   detail,
	})
}

func memberNames(timer *domain.Timer) string {
	members := timer.Members()
	names := make([]string, 0, len(members))
	for _, member := range members {
		names = append(names, member.DisplayName())
	}
	return strings.Join(names, ", ")
}
