package ir

import (
	"fmt"
	"strings"
)

// AppliedChanges describes what a committed transition changed, in the
// index vocabulary of list-widget batch updates.
type AppliedChanges struct {
	// Removed holds base indexes, ascending.
	Removed []int `json:"removed,omitempty"`
	// Inserted holds result indexes, ascending.
	Inserted []int `json:"inserted,omitempty"`
	// Moved holds surviving items whose relative order changed.
	Moved []Move `json:"moved,omitempty"`
	// Updated holds base indexes of survivors whose model or size changed,
	// ascending. A moved item that also changed is listed here and in Moved.
	Updated []int `json:"updated,omitempty"`
	// Reset marks a wholesale state replacement: every base row is removed
	// and every result row inserted.
	Reset bool `json:"reset,omitempty"`

	// UserInfo is the caller context passed to ApplyChangeset.
	UserInfo UserInfo `json:"-"`

	// Transition metadata, filled in by the engine.
	Seq       int64      `json:"seq"`
	Token     string     `json:"token"`
	Mode      UpdateMode `json:"mode"`
	Changeset Changeset  `json:"-"`
}

// ResetChanges returns the descriptor of a state replacement that swaps
// prevLen rows for nextLen rows.
func ResetChanges(prevLen, nextLen int) *AppliedChanges {
	c := &AppliedChanges{Reset: true}
	for i := range prevLen {
		c.Removed = append(c.Removed, i)
	}
	for i := range nextLen {
		c.Inserted = append(c.Inserted, i)
	}
	return c
}

// IsEmpty reports whether no item changed.
func (c *AppliedChanges) IsEmpty() bool {
	return c == nil || (!c.Reset && len(c.Removed)+len(c.Inserted)+len(c.Moved)+len(c.Updated) == 0)
}

// IsPureUpdate reports whether the transition only updated items in place.
func (c *AppliedChanges) IsPureUpdate() bool {
	return c != nil && len(c.Updated) > 0 && len(c.Removed)+len(c.Inserted)+len(c.Moved) == 0
}

// String renders the descriptor compactly, e.g. "-[1] +[0 2] ~[3] >[0->2]",
// prefixed with "reset" for a state replacement.
// Empty descriptors render as "none".
func (c *AppliedChanges) String() string {
	if c.IsEmpty() {
		return "none"
	}
	var parts []string
	if c.Reset {
		parts = append(parts, "reset")
	}
	if len(c.Removed) > 0 {
		parts = append(parts, fmt.Sprintf("-%v", c.Removed))
	}
	if len(c.Inserted) > 0 {
		parts = append(parts, fmt.Sprintf("+%v", c.Inserted))
	}
	if len(c.Updated) > 0 {
		parts = append(parts, fmt.Sprintf("~%v", c.Updated))
	}
	if len(c.Moved) > 0 {
		moves := make([]string, len(c.Moved))
		for i, m := range c.Moved {
			moves[i] = fmt.Sprintf("%d->%d", m.From, m.To)
		}
		parts = append(parts, ">["+strings.Join(moves, " ")+"]")
	}
	return strings.Join(parts, " ")
}
