package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/listsync/internal/ir"
)

func TestVerify_CleanJournal(t *testing.T) {
	ctx := context.Background()
	je := startJournaled(t, failingSizer, entry("a", "A"), entry("b", "B"), entry("c", "C"))

	steps := []ir.Changeset{
		ir.NewChangeset().WithInsert("d", "D", 0),
		ir.NewChangeset().WithMove(0, 2).WithRemove("b"),
		ir.NewChangeset().WithUpdate("a", "bad"),
		ir.NewChangeset().WithUpdate("a", "A2"),
		ir.NewChangeset().WithReplaceAll(entry("c", "C"), entry("e", "E"), entry("a", "A2")),
		ir.NewChangeset().WithConfiguration(ir.NewConfiguration(failingSizer, ir.SizeRange{Max: ir.Size{Width: 3, Height: 1}})),
		ir.NewChangeset().WithInsert("f", "FFFFFF", 3),
	}
	for _, cs := range steps {
		_ = je.ApplyChangeset(ctx, cs, ir.ModeAsync, nil)
	}
	require.NoError(t, je.WaitIdle(ctx))
	require.NoError(t, je.journal.Err())

	res, err := je.store.Verify(ctx, func(r ir.SizeRange) *ir.Configuration {
		return ir.NewConfiguration(failingSizer, r)
	})
	require.NoError(t, err)

	assert.True(t, res.OK(), "mismatches: %v", res.Mismatches)
	assert.Equal(t, 6, res.Checked)
	assert.Equal(t, 1, res.Skipped)
	require.NotNil(t, res.Final)
	assert.Equal(t, ir.MustSnapshotHash(je.CurrentState()), ir.MustSnapshotHash(res.Final))
}

func TestVerify_ReplaysInstalledState(t *testing.T) {
	ctx := context.Background()
	je := startJournaled(t, lenSizer, entry("a", "A"), entry("b", "B"))

	require.NoError(t, je.ApplyChangeset(ctx, ir.NewChangeset().WithInsert("c", "C", 2), ir.ModeSync, nil))
	installed := seedSnapshot(t, je.cfg, entry("x", "XX"), entry("a", "AAA"))
	require.NoError(t, je.SetState(ctx, installed, nil))
	require.NoError(t, je.ApplyChangeset(ctx, ir.NewChangeset().WithRemove("x"), ir.ModeSync, nil))
	require.NoError(t, je.journal.Err())

	rec, err := je.store.ReadTransition(ctx, "t2")
	require.NoError(t, err)
	assert.True(t, rec.Changes.Reset)
	assert.Equal(t, "reset -[0 1 2] +[0 1]", rec.Changes.String())

	res, err := je.store.Verify(ctx, newTestConfig)
	require.NoError(t, err)
	assert.True(t, res.OK(), "mismatches: %v", res.Mismatches)
	assert.Equal(t, 3, res.Checked)
	assert.Equal(t, ir.MustSnapshotHash(je.CurrentState()), ir.MustSnapshotHash(res.Final))
}

func TestVerify_DetectsTampering(t *testing.T) {
	ctx := context.Background()
	je := startJournaled(t, lenSizer, entry("a", "A"))

	require.NoError(t, je.ApplyChangeset(ctx, ir.NewChangeset().WithInsert("b", "B", 1), ir.ModeSync, nil))
	require.NoError(t, je.ApplyChangeset(ctx, ir.NewChangeset().WithUpdate("a", "AA"), ir.ModeSync, nil))

	_, err := je.store.DB().Exec(`UPDATE transitions SET snapshot_hash = 'forged' WHERE token = 't2'`)
	require.NoError(t, err)

	res, err := je.store.Verify(ctx, newTestConfig)
	require.NoError(t, err)

	assert.False(t, res.OK())
	require.Len(t, res.Mismatches, 1)
	assert.Equal(t, "t2", res.Mismatches[0].Token)
	assert.Equal(t, "forged", res.Mismatches[0].Want)
	assert.Contains(t, res.Mismatches[0].String(), "seq=2")
}

func TestVerify_DifferentSizerMismatches(t *testing.T) {
	ctx := context.Background()
	je := startJournaled(t, lenSizer, entry("a", "A"))
	require.NoError(t, je.ApplyChangeset(ctx, ir.NewChangeset().WithInsert("b", "BB", 0), ir.ModeSync, nil))

	tall := ir.SizerFunc(func(context.Context, ir.Model, *ir.Configuration) (ir.Size, error) {
		return ir.Size{Width: 1, Height: 9}, nil
	})
	res, err := je.store.Verify(ctx, func(r ir.SizeRange) *ir.Configuration {
		return ir.NewConfiguration(tall, r)
	})
	require.NoError(t, err)
	assert.Len(t, res.Mismatches, 2, "checkpoint and one transition")
}

func TestVerify_NoCheckpoint(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Verify(context.Background(), newTestConfig)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}
