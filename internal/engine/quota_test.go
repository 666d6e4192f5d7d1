package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/listsync/internal/ir"
)

func TestPendingQuota_Check(t *testing.T) {
	q := pendingQuota{limit: 2}

	assert.NoError(t, q.Check(0))
	assert.NoError(t, q.Check(1))

	err := q.Check(2)
	require.Error(t, err)
	assert.True(t, IsQueueLimitError(err))
	assert.Contains(t, err.Error(), "2 queued, limit 2")
}

func TestPendingQuota_Disabled(t *testing.T) {
	q := pendingQuota{}
	assert.NoError(t, q.Check(1_000_000))
}

func TestIsQueueLimitError_Wrapped(t *testing.T) {
	err := fmt.Errorf("submit: %w", &QueueLimitError{Pending: 3, Limit: 3})
	assert.True(t, IsQueueLimitError(err))
	assert.False(t, IsQueueLimitError(fmt.Errorf("other")))
}

func TestEngine_MaxPending(t *testing.T) {
	te := newEngine(t)
	WithMaxPending(2)(te.Engine)
	te.start(t)
	te.sizer.Hold("A")
	ctx := context.Background()

	require.NoError(t, te.ApplyChangeset(ctx, ir.NewChangeset().WithInsert("a", "A", 0), ir.ModeAsync, nil))
	require.NoError(t, te.ApplyChangeset(ctx, ir.NewChangeset().WithInsert("b", "B", 1), ir.ModeAsync, nil))

	err := te.ApplyChangeset(ctx, ir.NewChangeset().WithInsert("c", "C", 2), ir.ModeAsync, nil)
	assert.True(t, IsQueueLimitError(err))
	assert.Equal(t, 2, te.QueueLen())

	te.sizer.Release("A")
	require.NoError(t, te.WaitIdle(ctx))
	require.NoError(t, te.ApplyChangeset(ctx, ir.NewChangeset().WithInsert("c", "C", 2), ir.ModeSync, nil))
	assert.Equal(t, 3, te.CurrentState().Len())
}
