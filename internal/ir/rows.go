package ir

import "fmt"

// ApplyToRows replays c against rows, the contents a widget shows for the
// base snapshot, and returns the rows for the result snapshot.
//
// Moved rows keep their value unless their base index is listed in
// Updated. Inserted rows and updated rows are produced by render, which
// receives the result index. Surviving rows fill
// the slots not taken by insertions and move destinations, in base order.
//
// It returns an error if c does not describe a transition from len(rows)
// rows.
func ApplyToRows[T any](rows []T, c *AppliedChanges, render func(result int) T) ([]T, error) {
	if c.IsEmpty() {
		return append([]T(nil), rows...), nil
	}

	gone := make(map[int]bool, len(c.Removed)+len(c.Moved))
	for _, i := range c.Removed {
		if i < 0 || i >= len(rows) || gone[i] {
			return nil, fmt.Errorf("removed index %d invalid for %d rows", i, len(rows))
		}
		gone[i] = true
	}
	for _, m := range c.Moved {
		if m.From < 0 || m.From >= len(rows) || gone[m.From] {
			return nil, fmt.Errorf("move source %d invalid for %d rows", m.From, len(rows))
		}
		gone[m.From] = true
	}
	refresh := make(map[int]bool, len(c.Updated))
	for _, i := range c.Updated {
		refresh[i] = true
	}

	n := len(rows) - len(c.Removed) + len(c.Inserted)
	if n < 0 {
		return nil, fmt.Errorf("transition leaves %d rows", n)
	}
	out := make([]T, n)
	filled := make([]bool, n)
	claim := func(at int, what string) error {
		if at < 0 || at >= n || filled[at] {
			return fmt.Errorf("%s index %d invalid for %d rows", what, at, n)
		}
		filled[at] = true
		return nil
	}

	for _, m := range c.Moved {
		if err := claim(m.To, "move destination"); err != nil {
			return nil, err
		}
		out[m.To] = rows[m.From]
		if refresh[m.From] {
			out[m.To] = render(m.To)
		}
	}
	for _, at := range c.Inserted {
		if err := claim(at, "inserted"); err != nil {
			return nil, err
		}
		out[at] = render(at)
	}

	slot := 0
	for i, row := range rows {
		if gone[i] {
			continue
		}
		for slot < n && filled[slot] {
			slot++
		}
		if slot == n {
			return nil, fmt.Errorf("no slot left for row %d", i)
		}
		out[slot] = row
		if refresh[i] {
			out[slot] = render(slot)
		}
		filled[slot] = true
	}
	return out, nil
}
