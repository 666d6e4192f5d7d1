package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/listsync/internal/ir"
	"github.com/roach88/listsync/internal/layout"
	"github.com/roach88/listsync/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayMismatch is one transition whose replayed hash differs.
type ReplayMismatch struct {
	Seq      int64  `json:"seq"`
	Token    string `json:"token,omitempty"`
	Version  uint64 `json:"version"`
	Recorded string `json:"recorded"`
	Replayed string `json:"replayed"`
}

// ReplayResult holds the determinism check outcome.
type ReplayResult struct {
	Checked       int              `json:"checked"`
	Skipped       int              `json:"skipped"`
	Version       uint64           `json:"version"`
	SnapshotHash  string           `json:"snapshot_hash,omitempty"`
	Deterministic bool             `json:"deterministic"`
	Mismatches    []ReplayMismatch `json:"mismatches,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the journal and verify determinism",
		Long: `Replay a journal from its earliest checkpoint and verify determinism.

The checkpointed list is rebuilt and resized with the text sizer, then
every committed changeset is re-applied in seq order. Each resulting
snapshot hash is compared with the one recorded when the transition
committed. Failed transitions are skipped; they never changed the list.

Exit codes:
  0 - Every replayed snapshot matched
  1 - Determinism verification failed (differences detected)
  2 - Command error (journal not found, no checkpoint, etc.)

Examples:
  listsync replay --db ./listsync.db
  listsync replay --db ./listsync.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the journal (default from config)")

	return cmd
}

// textConfiguration rebuilds the configuration the demo journals under.
func textConfiguration(r ir.SizeRange) *ir.Configuration {
	return ir.NewConfiguration(layout.NewTextSizer(), r)
}

func runReplay(ctx context.Context, opts *ReplayOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := openJournal(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	f := opts.formatter(cmd)
	f.VerboseLog("replaying %s", opts.journalPath(opts.Database))

	res, err := st.Verify(ctx, textConfiguration)
	if store.IsNotFound(err) {
		return WrapExitError(ExitCommandError, "journal has no checkpoint", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	result := ReplayResult{
		Checked:       res.Checked,
		Skipped:       res.Skipped,
		Deterministic: res.OK(),
	}
	if res.Final != nil {
		result.Version = res.Final.Version()
		result.SnapshotHash = ir.MustSnapshotHash(res.Final)
	}
	for _, m := range res.Mismatches {
		result.Mismatches = append(result.Mismatches, ReplayMismatch{
			Seq:      m.Seq,
			Token:    m.Token,
			Version:  m.Version,
			Recorded: m.Want,
			Replayed: m.Got,
		})
	}

	if f.isJSON() {
		if err := f.Result(result.Deterministic, result); err != nil {
			return err
		}
	} else {
		printReplay(cmd, res, result)
	}

	if !result.Deterministic {
		return NewExitError(ExitFailure, fmt.Sprintf("%d transition(s) replayed differently", len(result.Mismatches)))
	}
	return nil
}

func printReplay(cmd *cobra.Command, res store.VerifyResult, result ReplayResult) {
	w := cmd.OutOrStdout()
	for _, m := range res.Mismatches {
		fmt.Fprintf(w, "✗ %s\n", m)
	}
	status := "deterministic"
	if !result.Deterministic {
		status = "NOT deterministic"
	}
	fmt.Fprintf(w, "Replayed %d transitions (%d failed skipped): %s\n", result.Checked, result.Skipped, status)
	if result.SnapshotHash != "" {
		fmt.Fprintf(w, "Final version %d, snapshot %s\n", result.Version, result.SnapshotHash)
	}
}
