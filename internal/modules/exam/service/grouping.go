package service

import (
	"sort"
	"time"

	"examclock/internal/modules/exam/domain"
)

// GroupResult lists the timers a grouping pass touched.
type GroupResult struct {
	Created  []*domain.Timer
	Extended []*domain.Timer
}

func (r GroupResult) Empty() bool {
	return len(r.Created) == 0 && len(r.Extended) == 0
}

// Group buckets idle subjects by the duration of their next pending section
// and attaches each bucket to the first not-yet-started timer of that
// duration, creating one when none exists. Running timers are never touched
// and a subject already attached to a timer is skipped, so calling Group
// twice in a row changes nothing.
func Group(idle []*domain.Subject, live []*domain.Timer, newTimer func(time.Duration) *domain.Timer) GroupResult {
	attached := make(map[int64]struct{})
	for _, timer := range live {
		if timer.State() == domain.TimerFinished {
			continue
		}
		for _, member := range timer.Members() {
			attached[member.SubjectID] = struct{}{}
		}
	}

	buckets := make(map[time.Duration][]domain.Member)
	for _, subject := range idle {
		if _, ok := attached[subject.ID]; ok {
			continue
		}
		next := subject.NextPendingSection()
		if next == nil {
			subject.Release()
			continue
		}
		subject.Reserve(next)
		buckets[next.Duration] = append(buckets[next.Duration], domain.MemberFor(subject, next))
	}

	durations := make([]time.Duration, 0, len(buckets))
	for d := range buckets {
		durations = append(durations, d)
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var res GroupResult
	for _, d := range durations {
		members := buckets[d]
		if timer := pendingTimer(live, d); timer != nil {
			for _, member := range members {
				// The timer is in the created state and the member is unattached.
				_ = timer.AddMember(member)
			}
			res.Extended = append(res.Extended, timer)
			continue
		}
		timer := newTimer(d)
		for _, member := range members {
			_ = timer.AddMember(member)
		}
		live = append(live, timer)
		res.Created = append(res.Created, timer)
	}
	return res
}

func pendingTimer(live []*domain.Timer, d time.Duration) *domain.Timer {
	for _, timer := range live {
		if timer.Duration() == d && timer.State() == domain.TimerCreated {
			return timer
		}
	}
	return nil
}
