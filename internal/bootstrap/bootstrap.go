package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"

	examinadapter "examclock/internal/modules/exam/adapter/in"
	examoutadapter "examclock/internal/modules/exam/adapter/out"
	examout "examclock/internal/modules/exam/port/out"
	examservice "examclock/internal/modules/exam/service"
	examusecase "examclock/internal/modules/exam/usecase"
	"examclock/internal/platform/clock"
	"examclock/internal/platform/config"
	"examclock/internal/platform/id"
	"examclock/internal/platform/logging"
	uiapp "examclock/internal/ui/app"
)

type App struct {
	Config  config.Config
	Logger  hclog.Logger
	ExamCLI examinadapter.CLIHandler

	closers []io.Closer
}

// New wires the exam engine with its journal, log and report sinks. Log
// output goes to logOut unless the config names a log file.
func New(cfg config.Config, logOut io.Writer) (*App, error) {
	logger, logCloser, err := logging.New(cfg, logOut)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger, closers: []io.Closer{logCloser}}

	journal, err := examoutadapter.NewSQLiteJournal(cfg.JournalPath)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("new journal: %w", err)
	}
	app.closers = append(app.closers, journal)

	reports := examoutadapter.NewMarkdownReportSink(cfg.ReportDir)
	sinks := []examout.EventSink{journal, examoutadapter.NewLogSink(logger)}
	if cfg.Reports {
		sinks = append(sinks, reports)
	}

	scheduler := examservice.NewScheduler(clock.SystemClock{}, &id.Counter{}, id.UUID{}, logger)
	examUC := examusecase.NewInteractor(scheduler, examoutadapter.NewYAMLRosterSource(), journal, reports, logger, sinks...)
	app.ExamCLI = examinadapter.NewCLIHandler(examUC)

	logger.Debug("engine ready", "journal", cfg.JournalPath, "reports", cfg.Reports)
	return app, nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// RunTUI imports the configured roster, optionally watches it for edits, and
// runs the operator screen until the user quits.
func RunTUI(ctx context.Context, app *App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var opts []uiapp.Option
	rosterPath := app.Config.RosterPath
	if rosterPath != "" {
		if _, err := app.ExamCLI.ImportRoster(ctx, rosterPath); err != nil {
			app.Logger.Warn("initial roster import failed", "path", rosterPath, "error", err)
		}
		if app.Config.WatchRoster {
			watcher, err := examoutadapter.NewRosterWatcher(rosterPath, app.Logger)
			if err != nil {
				return fmt.Errorf("watch roster: %w", err)
			}
			defer func() { _ = watcher.Close() }()
			watcher.Start(ctx)
			opts = append(opts, uiapp.WithRosterWatch(watcher.Changes()))
		}
	}

	model := uiapp.NewModel(app.ExamCLI, app.Config.TickInterval, rosterPath, opts...)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
