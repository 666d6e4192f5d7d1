package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/listsync/internal/config"
	"github.com/roach88/listsync/internal/ir"
	"github.com/roach88/listsync/internal/store"
	"github.com/roach88/listsync/internal/tui"
)

func TestDemoOptionsFromConfig(t *testing.T) {
	root := &RootOptions{Config: &config.Config{Width: 30, Workers: 2, MaxPending: 8, Theme: "Slate"}}
	opts := &DemoOptions{RootOptions: root, Width: -1, Workers: -1}

	o := demoOptions(opts, nil)
	assert.Equal(t, 30, o.Width)
	assert.Equal(t, 2, o.Workers)
	assert.Equal(t, "Slate", o.ThemeName)
	assert.Equal(t, defaultSeed, o.Seed)
	assert.Len(t, o.EngineOptions, 1)
	assert.Nil(t, o.Prepare)
	assert.NotNil(t, o.Logger)
}

func TestDemoOptionsFlagsOverride(t *testing.T) {
	root := &RootOptions{Config: &config.Config{Width: 30, Workers: 2, Theme: "Slate"}}
	opts := &DemoOptions{
		RootOptions: root,
		Width:       0,
		Workers:     4,
		Theme:       "Dracula",
		Seed:        []string{"one", "two"},
	}

	o := demoOptions(opts, nil)
	assert.Equal(t, 0, o.Width)
	assert.Equal(t, 4, o.Workers)
	assert.Equal(t, "Dracula", o.ThemeName)
	assert.Equal(t, []string{"one", "two"}, o.Seed)
	assert.Empty(t, o.EngineOptions)
}

func TestDemoOptionsWithoutRoot(t *testing.T) {
	o := demoOptions(&DemoOptions{RootOptions: &RootOptions{}, Width: -1, Workers: -1}, nil)
	assert.Equal(t, config.Default().Width, o.Width)
	assert.Equal(t, config.Default().Theme, o.ThemeName)
}

// A journaled demo session must replay cleanly with the text sizer.
func TestDemoJournalReplays(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "demo.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	journal := store.NewJournal(st, nil)

	opts := &DemoOptions{
		RootOptions: &RootOptions{Config: &config.Config{Width: 10}},
		Width:       -1,
		Workers:     -1,
		Seed:        []string{"short", "a row long enough to wrap"},
	}
	m, err := tui.New(ctx, demoOptions(opts, journal))
	require.NoError(t, err)

	cp, err := st.EarliestCheckpoint(ctx)
	require.NoError(t, err)
	assert.Len(t, cp.Entries, 2)
	assert.Equal(t, 10, cp.SizeRange.Max.Width)

	done := m.Start(ctx)
	e := m.Engine()
	require.NoError(t, e.ApplyChangeset(ctx, ir.NewChangeset().WithInsert("extra", "inserted from the test", 0), ir.ModeSync, nil))
	require.NoError(t, e.ApplyChangeset(ctx, ir.NewChangeset().WithMove(0, 2), ir.ModeAsync, nil))
	require.NoError(t, e.WaitIdle(ctx))
	cancel()
	<-done

	require.NoError(t, journal.Err())
	assert.Equal(t, 2, journal.Written())
	require.NoError(t, st.Close())

	out, err := execute(NewReplayCommand(&RootOptions{Format: "text"}), "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Replayed 2 transitions (0 failed skipped): deterministic")
}
