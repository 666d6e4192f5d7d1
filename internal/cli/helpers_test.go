package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/listsync/internal/engine"
	"github.com/roach88/listsync/internal/ir"
	"github.com/roach88/listsync/internal/store"
	"github.com/roach88/listsync/internal/testutil"
)

// journalRange is the size range writeJournal records under.
var journalRange = ir.SizeRange{Min: ir.Size{Height: 1}, Max: ir.Size{Width: 12}}

// writeJournal runs four transitions through a journaled engine and
// returns the journal path:
//
//	t1 async insert c at 1   committed v1->v2
//	t2 async insert x (1.5)  failed, the text sizer cannot size floats
//	t3 sync remove a         committed v2->v3
//	t4 sync reload           committed v3->v4
func writeJournal(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	st, err := store.Open(path)
	require.NoError(t, err)

	cfg := textConfiguration(journalRange)
	seed, _, err := engine.Transition(ctx, ir.EmptySnapshot(cfg), ir.NewChangeset().WithReplaceAll(
		ir.Entry{ID: "a", Model: "alpha"},
		ir.Entry{ID: "b", Model: "bravo"},
	), nil, 1)
	require.NoError(t, err)

	j := store.NewJournal(st, nil)
	require.NoError(t, j.Checkpoint(ctx, seed))

	e := engine.New(cfg,
		engine.WithInitialState(seed),
		engine.WithTokenGenerator(testutil.NewSequentialTokens("t")),
	)
	e.AddListener(j)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- e.Run(runCtx) }()

	require.NoError(t, e.ApplyChangeset(ctx, ir.NewChangeset().WithInsert("c", "charlie wraps past twelve", 1), ir.ModeAsync, nil))
	require.NoError(t, e.ApplyChangeset(ctx, ir.NewChangeset().WithInsert("x", 1.5, 0), ir.ModeAsync, nil))
	require.NoError(t, e.ApplyChangeset(ctx, ir.NewChangeset().WithRemove("a"), ir.ModeSync, nil))
	require.NoError(t, e.Reload(ctx, ir.ModeSync, nil))
	require.NoError(t, e.WaitIdle(ctx))

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	require.NoError(t, j.Err())
	require.Equal(t, 4, j.Written())
	require.NoError(t, st.Close())
	return path
}

// execute runs cmd with args and returns stdout and the command error.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
