package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(s ...string) []ItemID {
	out := make([]ItemID, len(s))
	for i, v := range s {
		out[i] = ItemID(v)
	}
	return out
}

// applyDiff replays a diff with batch semantics and returns the result.
func applyDiff(t *testing.T, before, after []ItemID, d DiffResult) []ItemID {
	t.Helper()
	entries := make([]Item, len(before))
	for i, id := range before {
		entries[i] = Item{ID: id}
	}
	base := MustSnapshot(0, entries, nil)

	cs := NewChangeset()
	for _, i := range d.Removed {
		cs = cs.WithRemoveAt(i)
	}
	for _, j := range d.Inserted {
		cs = cs.WithInsert(after[j], nil, j)
	}
	for _, m := range d.Moved {
		cs = cs.WithMove(m.From, m.To)
	}
	p, err := PlanChangeset(base, nil, cs)
	require.NoError(t, err)
	return plannedIDs(p)
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name      string
		before    []ItemID
		after     []ItemID
		wantMoves int
	}{
		{"identical", ids("a", "b", "c"), ids("a", "b", "c"), 0},
		{"empty to full", nil, ids("a", "b"), 0},
		{"full to empty", ids("a", "b"), nil, 0},
		{"single move", ids("a", "b", "c", "d"), ids("b", "c", "d", "a"), 1},
		{"reverse", ids("a", "b", "c", "d"), ids("d", "c", "b", "a"), 3},
		{"mixed", ids("a", "b", "c", "d", "e"), ids("e", "x", "b", "a", "d"), 2},
		{"swap pairs", ids("a", "b", "c", "d"), ids("b", "a", "d", "c"), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Diff(tt.before, tt.after)
			assert.Len(t, d.Moved, tt.wantMoves)

			got := applyDiff(t, tt.before, tt.after, d)
			if len(tt.after) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.after, got)
		})
	}
}

func TestLongestIncreasing(t *testing.T) {
	marks := longestIncreasing([]int{3, 0, 1, 4, 2})
	var picked []int
	for i, ok := range marks {
		if ok {
			picked = append(picked, []int{3, 0, 1, 4, 2}[i])
		}
	}
	assert.Len(t, picked, 3)
	assert.IsIncreasing(t, picked)
}
