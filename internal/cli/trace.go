package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/listsync/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Since    int64
	Token    string
	Failures bool
}

// TraceEvent is one journaled transition in the timeline.
type TraceEvent struct {
	Seq          int64  `json:"seq"`
	Token        string `json:"token"`
	Mode         string `json:"mode"`
	Status       string `json:"status"`
	BaseVersion  uint64 `json:"base_version"`
	Version      uint64 `json:"version"`
	Changes      string `json:"changes"`
	Changeset    string `json:"changeset,omitempty"`
	SnapshotHash string `json:"snapshot_hash"`
	Error        string `json:"error,omitempty"`
}

// TraceStats holds summary statistics for the timeline.
type TraceStats struct {
	Total     int    `json:"total"`
	Committed int    `json:"committed"`
	Failed    int    `json:"failed"`
	Version   uint64 `json:"version"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journaled transition timeline",
		Long: `Show every transition recorded in a journal, in commit order.

Each line names the transition token, its mode, the version it moved the
list from and to, and the applied changes. Failed transitions keep the
list at its base version and show the error instead.

Examples:
  listsync trace --db ./listsync.db
  listsync trace --db ./listsync.db --since 40
  listsync trace --db ./listsync.db --failures
  listsync trace --db ./listsync.db --token t-0192 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the journal (default from config)")
	cmd.Flags().Int64Var(&opts.Since, "since", 0, "only show transitions after this seq")
	cmd.Flags().StringVar(&opts.Token, "token", "", "show a single transition and its changeset")
	cmd.Flags().BoolVar(&opts.Failures, "failures", false, "only show failed transitions")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := openJournal(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := readTimeline(ctx, st, opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := TraceResult{Timeline: make([]TraceEvent, 0, len(records))}
	for _, r := range records {
		ev := TraceEvent{
			Seq:          r.Seq,
			Token:        r.Token,
			Mode:         r.Mode.String(),
			Status:       string(r.Status),
			BaseVersion:  r.BaseVersion,
			Version:      r.Version,
			Changes:      r.Changes.String(),
			SnapshotHash: r.SnapshotHash,
			Error:        r.Error,
		}
		if opts.Token != "" {
			ev.Changeset = r.Changeset
		}
		result.Timeline = append(result.Timeline, ev)

		result.Stats.Total++
		if r.Status == store.StatusFailed {
			result.Stats.Failed++
		} else {
			result.Stats.Committed++
		}
		result.Stats.Version = max(result.Stats.Version, r.Version)
	}

	f := opts.formatter(cmd)
	if f.isJSON() {
		return f.Result(true, result)
	}
	printTrace(cmd, result)
	return nil
}

func readTimeline(ctx context.Context, st *store.Store, opts *TraceOptions) ([]store.Record, error) {
	switch {
	case opts.Token != "":
		r, err := st.ReadTransition(ctx, opts.Token)
		if store.IsNotFound(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []store.Record{r}, nil
	case opts.Failures:
		records, err := st.ReadFailures(ctx)
		if err != nil {
			return nil, err
		}
		out := records[:0]
		for _, r := range records {
			if r.Seq > opts.Since {
				out = append(out, r)
			}
		}
		return out, nil
	default:
		return st.ReadTransitionsSince(ctx, opts.Since)
	}
}

// openJournal opens the journal named by flag or the config. It does not
// create one: a missing file is a command error.
func openJournal(opts *RootOptions, flag string) (*store.Store, error) {
	path := opts.journalPath(flag)
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no journal: pass --db or set journal in the config file")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("journal not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return st, nil
}

func printTrace(cmd *cobra.Command, result TraceResult) {
	w := cmd.OutOrStdout()
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "No transitions found.")
		return
	}
	for _, ev := range result.Timeline {
		if ev.Status == string(store.StatusFailed) {
			fmt.Fprintf(w, "%4d %s %-5s v%d failed: %s\n", ev.Seq, ev.Token, ev.Mode, ev.BaseVersion, ev.Error)
		} else {
			fmt.Fprintf(w, "%4d %s %-5s v%d->v%d %s\n", ev.Seq, ev.Token, ev.Mode, ev.BaseVersion, ev.Version, ev.Changes)
		}
		if ev.Changeset != "" {
			fmt.Fprintf(w, "     changeset %s\n", ev.Changeset)
		}
	}
	fmt.Fprintf(w, "\n%d transitions (%d committed, %d failed), version %d\n",
		result.Stats.Total, result.Stats.Committed, result.Stats.Failed, result.Stats.Version)
}
