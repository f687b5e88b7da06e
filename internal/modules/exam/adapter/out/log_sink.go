package out

import (
	"context"

	hclog "github.com/hashicorp/go-hclog"

	"examclock/internal/modules/exam/domain"
)

// LogSink writes events to a structured logger. Ticks go to trace so a debug
// log stays readable.
type LogSink struct {
	logger hclog.Logger
}

func NewLogSink(logger hclog.Logger) LogSink {
	return LogSink{logger: logger.Named("events")}
}

func (s LogSink) Publish(_ context.Context, event domain.Event) error {
	args := []interface{}{
		"kind", string(event.Kind),
		"timer", event.TimerID,
		"state", event.Snapshot.State.String(),
		"remaining", event.Snapshot.RemainingText(),
	}
	if event.Detail != "" {
		args = append(args, "detail", event.Detail)
	}
	switch event.Kind {
	case domain.EventTimerTick:
		s.logger.Trace("tick", args...)
	case domain.EventTimerMilestone:
		s.logger.Info("milestone", append(args, "mark", event.Milestone.String())...)
	case domain.EventTimerFinished:
		s.logger.Info("finished", args...)
	default:
		s.logger.Debug("event", args...)
	}
	return nil
}
