package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/listsync/internal/store"
)

type replayResponse struct {
	Status string       `json:"status"`
	Data   ReplayResult `json:"data"`
}

func TestReplayNonExistentDatabase(t *testing.T) {
	_, err := execute(NewReplayCommand(&RootOptions{Format: "text"}), "--db", "/nonexistent/journal.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplayNoCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = execute(NewReplayCommand(&RootOptions{Format: "text"}), "--db", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no checkpoint")
}

func TestReplayDeterministic(t *testing.T) {
	path := writeJournal(t)

	out, err := execute(NewReplayCommand(&RootOptions{Format: "json"}), "--db", path)
	require.NoError(t, err)

	var resp replayResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Deterministic)
	assert.Equal(t, 3, resp.Data.Checked)
	assert.Equal(t, 1, resp.Data.Skipped)
	assert.Equal(t, uint64(4), resp.Data.Version)
	assert.Empty(t, resp.Data.Mismatches)

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()
	last, err := st.ReadTransition(t.Context(), "t4")
	require.NoError(t, err)
	assert.Equal(t, last.SnapshotHash, resp.Data.SnapshotHash)
}

func TestReplayText(t *testing.T) {
	path := writeJournal(t)

	out, err := execute(NewReplayCommand(&RootOptions{Format: "text"}), "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Replayed 3 transitions (1 failed skipped): deterministic")
	assert.Contains(t, out, "Final version 4")
}

func TestReplayDetectsTampering(t *testing.T) {
	path := writeJournal(t)

	st, err := store.Open(path)
	require.NoError(t, err)
	_, err = st.DB().Exec(`UPDATE transitions SET snapshot_hash = 'deadbeef' WHERE token = 't3'`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(NewReplayCommand(&RootOptions{Format: "json"}), "--db", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp replayResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Deterministic)
	require.Len(t, resp.Data.Mismatches, 1)
	assert.Equal(t, "t3", resp.Data.Mismatches[0].Token)
	assert.Equal(t, "deadbeef", resp.Data.Mismatches[0].Recorded)
}
