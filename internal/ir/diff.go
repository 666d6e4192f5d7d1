package ir

import "sort"

// DiffResult describes how to turn one identity list into another using
// list-widget batch semantics.
type DiffResult struct {
	// Removed holds old indexes, ascending.
	Removed []int
	// Inserted holds new indexes, ascending.
	Inserted []int
	// Moved holds surviving items whose relative order changed.
	Moved []Move
}

// Diff computes the batch operations that transform before into after. Both
// lists must hold unique identities.
//
// Survivors on a longest increasing subsequence of old positions stay put;
// every other survivor is reported as a move, which keeps the move count
// minimal.
func Diff(before, after []ItemID) DiffResult {
	oldIndex := make(map[ItemID]int, len(before))
	for i, id := range before {
		oldIndex[id] = i
	}
	newIndex := make(map[ItemID]int, len(after))
	for i, id := range after {
		newIndex[id] = i
	}

	var res DiffResult
	for i, id := range before {
		if _, ok := newIndex[id]; !ok {
			res.Removed = append(res.Removed, i)
		}
	}

	// Old positions of survivors, in new order.
	var seq, seqNew []int
	for j, id := range after {
		i, ok := oldIndex[id]
		if !ok {
			res.Inserted = append(res.Inserted, j)
			continue
		}
		seq = append(seq, i)
		seqNew = append(seqNew, j)
	}

	stable := longestIncreasing(seq)
	for k := range seq {
		if !stable[k] {
			res.Moved = append(res.Moved, Move{From: seq[k], To: seqNew[k]})
		}
	}
	sort.Slice(res.Moved, func(a, b int) bool { return res.Moved[a].From < res.Moved[b].From })
	return res
}

// longestIncreasing marks the members of one longest strictly increasing
// subsequence of seq.
func longestIncreasing(seq []int) []bool {
	marks := make([]bool, len(seq))
	if len(seq) == 0 {
		return marks
	}

	// tails[k] is the index in seq of the smallest tail of an increasing
	// run of length k+1.
	tails := make([]int, 0, len(seq))
	prev := make([]int, len(seq))
	for i, v := range seq {
		k := sort.Search(len(tails), func(k int) bool { return seq[tails[k]] >= v })
		if k > 0 {
			prev[i] = tails[k-1]
		} else {
			prev[i] = -1
		}
		if k == len(tails) {
			tails = append(tails, i)
		} else {
			tails[k] = i
		}
	}

	for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
		marks[i] = true
	}
	return marks
}
