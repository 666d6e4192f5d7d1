package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/listsync/internal/ir"
)

func TestReadTransitions_Empty(t *testing.T) {
	s := createTestStore(t)

	records, err := s.ReadTransitions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	seq, err := s.LastSeq(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)
}

func TestReadTransitions_OrderedBySeq(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	cfg := newTestConfig(ir.SizeRange{})
	base := seedSnapshot(t, cfg, entry("a", "A"))

	// Written out of order on purpose.
	r3, _ := committedRecord(t, base, ir.NewChangeset().WithInsert("c", "C", 0), 3, "t3")
	r1, _ := committedRecord(t, base, ir.NewChangeset().WithInsert("b", "B", 0), 1, "t1")
	r2 := Record{Seq: 2, Token: "t2", Mode: ir.ModeAsync, Status: StatusFailed,
		BaseVersion: 1, Version: 1, Changeset: "{}", Error: "boom"}
	for _, r := range []Record{r3, r1, r2} {
		require.NoError(t, s.WriteRecord(ctx, r))
	}

	records, err := s.ReadTransitions(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, want := range []string{"t1", "t2", "t3"} {
		assert.Equal(t, want, records[i].Token)
	}

	since, err := s.ReadTransitionsSince(ctx, 1)
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, "t2", since[0].Token)

	failures, err := s.ReadFailures(ctx)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "boom", failures[0].Error)

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), seq)
}

func TestReadTransition_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadTransition(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestEarliestCheckpoint(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	cfg := newTestConfig(ir.SizeRange{})

	_, err := s.EarliestCheckpoint(ctx)
	assert.True(t, IsNotFound(err))

	later := ir.MustSnapshot(5, nil, cfg)
	require.NoError(t, s.WriteCheckpoint(ctx, later))
	require.NoError(t, s.WriteCheckpoint(ctx, seedSnapshot(t, cfg, entry("a", "A"))))

	cp, err := s.EarliestCheckpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cp.Version)
	assert.Equal(t, []ir.Entry{entry("a", "A")}, cp.Entries)
}
