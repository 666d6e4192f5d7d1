package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/listsync/internal/engine"
	"github.com/roach88/listsync/internal/store"
	"github.com/roach88/listsync/internal/tui"
)

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	Database string
	Width    int
	Workers  int
	Theme    string
	Seed     []string
}

var defaultSeed = []string{
	"Changesets apply in the order they were submitted.",
	"Sizing runs off the UI goroutine.",
	"Listeners see every transition as one batch update.",
	"Press ? for keys.",
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the interactive list demo",
		Long: `Run a terminal list backed by the engine.

Rows are inserted, removed, moved and edited through changesets; sizing
runs on worker goroutines and the list view applies each committed
transition as one batch. With --db every transition is journaled so it
can be inspected with trace and verified with replay.

Width, workers and theme default to the config file.

Examples:
  listsync demo
  listsync demo --width 60 --theme Slate
  listsync demo --db ./listsync.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal transitions to this SQLite file")
	cmd.Flags().IntVar(&opts.Width, "width", -1, "wrap width, 0 disables wrapping (default from config)")
	cmd.Flags().IntVar(&opts.Workers, "workers", -1, "sizing workers, 0 means GOMAXPROCS (default from config)")
	cmd.Flags().StringVar(&opts.Theme, "theme", "", "color theme (default from config)")
	cmd.Flags().StringArrayVar(&opts.Seed, "seed", nil, "initial row, repeatable")

	return cmd
}

// demoOptions merges flags over the config into tui options. The journal,
// when set, is attached through Prepare.
func demoOptions(opts *DemoOptions, journal *store.Journal) tui.Options {
	settings := opts.settings()

	o := tui.Options{
		Seed:      opts.Seed,
		Width:     settings.Width,
		Workers:   settings.Workers,
		ThemeName: settings.Theme,
		Logger:    opts.logger(),
	}
	if len(o.Seed) == 0 {
		o.Seed = defaultSeed
	}
	if opts.Width >= 0 {
		o.Width = opts.Width
	}
	if opts.Workers >= 0 {
		o.Workers = opts.Workers
	}
	if opts.Theme != "" {
		o.ThemeName = opts.Theme
	}
	if settings.MaxPending > 0 {
		o.EngineOptions = append(o.EngineOptions, engine.WithMaxPending(settings.MaxPending))
	}
	if journal != nil {
		o.Prepare = func(ctx context.Context, e *engine.Engine) error {
			e.AddListener(journal)
			if err := journal.Checkpoint(ctx, e.CurrentState()); err != nil {
				return fmt.Errorf("checkpoint seed list: %w", err)
			}
			return nil
		}
	}
	return o
}

func runDemo(ctx context.Context, opts *DemoOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.logger()

	var journal *store.Journal
	if path := opts.journalPath(opts.Database); path != "" {
		st, err := store.Open(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer st.Close()
		journal = store.NewJournal(st, logger)
		logger.Info("journaling transitions", "path", path)
	}

	if err := tui.Run(ctx, demoOptions(opts, journal)); err != nil {
		return WrapExitError(ExitFailure, "demo failed", err)
	}

	if journal != nil {
		if err := journal.Err(); err != nil {
			return WrapExitError(ExitFailure, "journal write failed", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Journaled %d transitions to %s\n", journal.Written(), opts.journalPath(opts.Database))
	}
	return nil
}
