package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"examclock/internal/bootstrap"
	examdto "examclock/internal/modules/exam/dto"
	"examclock/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	dataDir    string
	configPath string
	rosterPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "examclock",
		Short:         "Exam room timers grouped by section length",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data", ".", "data directory for the journal and reports")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default <data>/examclock.yaml)")
	root.PersistentFlags().StringVar(&flags.rosterPath, "roster", "", "roster YAML file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "trace|debug|info|warn|error|off")

	root.AddCommand(newTUICmd(flags))
	root.AddCommand(newRunCmd(flags))
	root.AddCommand(newPlanCmd(flags))
	root.AddCommand(newSubjectsCmd(flags))
	root.AddCommand(newJournalCmd(flags))
	root.AddCommand(newReportsCmd(flags))
	return root
}

func loadConfig(flags *rootFlags) (config.Config, error) {
	path := flags.configPath
	if path == "" {
		path = filepath.Join(flags.dataDir, "examclock.yaml")
	}
	cfg, err := config.Load(path, flags.dataDir)
	if err != nil {
		return config.Config{}, err
	}
	if flags.rosterPath != "" {
		cfg.RosterPath = flags.rosterPath
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

func loadApp(flags *rootFlags, logOut io.Writer) (*bootstrap.App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg, logOut)
}

// loadRoster builds an app and imports the roster, which every headless
// command needs before it has anything to show.
func loadRoster(ctx context.Context, cmd *cobra.Command, flags *rootFlags) (*bootstrap.App, error) {
	app, err := loadApp(flags, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if app.Config.RosterPath == "" {
		_ = app.Close()
		return nil, fmt.Errorf("no roster: pass --roster or set roster in the config file")
	}
	out, err := app.ExamCLI.ImportRoster(ctx, app.Config.RosterPath)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	for _, skipped := range out.Skipped {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", skipped)
	}
	return app, nil
}

func newTUICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the operator screen",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, io.Discard)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			return bootstrap.RunTUI(cmd.Context(), app)
		},
	}
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	var autoAdvance bool
	var every time.Duration

	run := &cobra.Command{
		Use:   "run",
		Short: "Run every timer of the roster without the operator screen",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := loadRoster(ctx, cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			return runHeadless(ctx, cmd.OutOrStdout(), app, autoAdvance, every)
		},
	}
	run.Flags().BoolVar(&autoAdvance, "auto-advance", false, "start the next sections as soon as a round is over")
	run.Flags().DurationVar(&every, "every", 0, "print the timer lines at most this often (0 prints every tick)")
	return run
}

func runHeadless(ctx context.Context, w io.Writer, app *bootstrap.App, autoAdvance bool, every time.Duration) error {
	exam := app.ExamCLI
	board, err := exam.StartAll(ctx)
	if err != nil {
		return err
	}
	printBoard(w, board)

	ticker := time.NewTicker(app.Config.TickInterval)
	defer ticker.Stop()
	lastPrint := time.Now()
	for {
		select {
		case <-ctx.Done():
			// Interrupted mid exam: stop what is running so the journal
			// records it, then leave.
			board, err := exam.StopAll(context.Background())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, "%s stopped %d timer(s)\n", board.ClockText, board.Affected)
			return nil
		case <-ticker.C:
		}

		board, err := exam.Tick(ctx)
		if err != nil {
			return err
		}
		for _, notice := range board.Notices {
			_, _ = fmt.Fprintf(w, "%s %s\n", board.ClockText, notice)
		}
		if every <= 0 || time.Since(lastPrint) >= every {
			printBoard(w, board)
			lastPrint = time.Now()
		}
		if anyLive(board) || !board.CanAdvance {
			continue
		}
		if !autoAdvance {
			_, _ = fmt.Fprintf(w, "%s all timers finished\n", board.ClockText)
			return nil
		}
		if board, err = exam.Advance(ctx); err != nil {
			return err
		}
		if len(board.Timers) == 0 && !board.Pending {
			_, _ = fmt.Fprintf(w, "%s every section is complete\n", board.ClockText)
			return nil
		}
		if board, err = exam.StartAll(ctx); err != nil {
			return err
		}
		printBoard(w, board)
	}
}

func anyLive(board examdto.BoardOutput) bool {
	for _, timer := range board.Timers {
		if timer.State == "running" || timer.State == "paused" {
			return true
		}
	}
	return false
}

func printBoard(w io.Writer, board examdto.BoardOutput) {
	if len(board.Timers) == 0 {
		_, _ = fmt.Fprintf(w, "%s no timers\n", board.ClockText)
		return
	}
	for _, timer := range board.Timers {
		_, _ = fmt.Fprintf(w, "%s %s\t%s\t%s\t%s\n",
			board.ClockText, shortID(timer.ID), timer.State, timer.RemainingText, memberNames(timer))
	}
}

func newPlanCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show how the roster groups into timers without starting them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadRoster(cmd.Context(), cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			board, err := app.ExamCLI.Board(cmd.Context())
			if err != nil {
				return err
			}
			if len(board.Timers) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no timers")
				return nil
			}
			for _, timer := range board.Timers {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", shortID(timer.ID), timer.DurationText, memberNames(timer))
			}
			return nil
		},
	}
}

func newSubjectsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "subjects",
		Short: "List the roster subjects and their sections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadRoster(cmd.Context(), cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			subjects, err := app.ExamCLI.ListSubjects(cmd.Context())
			if err != nil {
				return err
			}
			if len(subjects) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no subjects")
				return nil
			}
			for _, s := range subjects {
				labels := make([]string, 0, len(s.Sections))
				for _, section := range s.Sections {
					labels = append(labels, section.Label)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", s.ID, s.DisplayName, s.Pool, strings.Join(labels, ", "))
			}
			return nil
		},
	}
}

func newJournalCmd(flags *rootFlags) *cobra.Command {
	var limit int
	journal := &cobra.Command{
		Use:   "journal",
		Short: "Show recent timer events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			entries, err := app.ExamCLI.Journal(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no events")
				return nil
			}
			for _, e := range entries {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n",
					e.At.Local().Format("2006-01-02 15:04:05"), e.Kind, shortID(e.TimerID), strings.Join(e.Subjects, ", "), e.Detail)
			}
			return nil
		},
	}
	journal.Flags().IntVar(&limit, "limit", 20, "number of events to show")
	return journal
}

func newReportsCmd(flags *rootFlags) *cobra.Command {
	var limit int
	reports := &cobra.Command{
		Use:   "reports",
		Short: "List the newest finished-timer reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.ExamCLI.Reports(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(out) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no reports")
				return nil
			}
			for _, r := range out {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tpaused %ds\t%s\t%s\n",
					r.EndedAt.Local().Format("2006-01-02 15:04"), r.Duration, r.PausedSeconds, strings.Join(r.Subjects, ", "), r.Path)
			}
			return nil
		},
	}
	reports.Flags().IntVar(&limit, "limit", 10, "number of reports to show")
	return reports
}

func memberNames(timer examdto.TimerOutput) string {
	names := make([]string, 0, len(timer.Members))
	for _, member := range timer.Members {
		names = append(names, member.DisplayName)
	}
	return strings.Join(names, ", ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
