package ir

import (
	"slices"
)

// Insertion adds a new item at Index in the resulting list.
type Insertion struct {
	ID    ItemID `json:"id"`
	Model Model  `json:"model"`
	Index int    `json:"index"`
}

// Update replaces the model of an existing item.
type Update struct {
	ID    ItemID `json:"id"`
	Model Model  `json:"model"`
}

// Move relocates the item at base index From to result index To.
type Move struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Changeset is a declarative batch of mutations applied to a list.
//
// Removals, move sources and updates address the base list; insertions and
// move destinations address the resulting list. A zero Changeset is empty.
//
// Builder methods return a modified copy and never alter the receiver.
type Changeset struct {
	Removals       []ItemID
	RemovedIndexes []int
	Insertions     []Insertion
	Updates        []Update
	Moves          []Move

	// Replace swaps the whole list for ReplaceAll. It cannot be combined
	// with item operations.
	Replace    bool
	ReplaceAll []Entry

	// ReloadAll re-sizes every item and keeps the list.
	ReloadAll bool

	// Configuration, when non-nil, replaces the sizing configuration.
	Configuration *Configuration
}

// NewChangeset returns an empty changeset.
func NewChangeset() Changeset {
	return Changeset{}
}

// WithInsert adds an insertion at result index.
func (c Changeset) WithInsert(id ItemID, model Model, index int) Changeset {
	c.Insertions = append(slices.Clip(c.Insertions), Insertion{ID: id, Model: model, Index: index})
	return c
}

// WithRemove removes the item with identity id.
func (c Changeset) WithRemove(id ItemID) Changeset {
	c.Removals = append(slices.Clip(c.Removals), id)
	return c
}

// WithRemoveAt removes the item at base index.
func (c Changeset) WithRemoveAt(index int) Changeset {
	c.RemovedIndexes = append(slices.Clip(c.RemovedIndexes), index)
	return c
}

// WithUpdate replaces the model of the item with identity id.
func (c Changeset) WithUpdate(id ItemID, model Model) Changeset {
	c.Updates = append(slices.Clip(c.Updates), Update{ID: id, Model: model})
	return c
}

// WithMove moves the item at base index from to result index to.
func (c Changeset) WithMove(from, to int) Changeset {
	c.Moves = append(slices.Clip(c.Moves), Move{From: from, To: to})
	return c
}

// WithReplaceAll replaces every item with entries.
func (c Changeset) WithReplaceAll(entries ...Entry) Changeset {
	c.Replace = true
	c.ReplaceAll = slices.Clone(entries)
	return c
}

// WithReloadAll marks every item for re-sizing.
func (c Changeset) WithReloadAll() Changeset {
	c.ReloadAll = true
	return c
}

// WithConfiguration replaces the sizing configuration.
func (c Changeset) WithConfiguration(cfg *Configuration) Changeset {
	c.Configuration = cfg
	return c
}

// Clone returns a deep copy of the operation slices.
func (c Changeset) Clone() Changeset {
	c.Removals = slices.Clone(c.Removals)
	c.RemovedIndexes = slices.Clone(c.RemovedIndexes)
	c.Insertions = slices.Clone(c.Insertions)
	c.Updates = slices.Clone(c.Updates)
	c.Moves = slices.Clone(c.Moves)
	c.ReplaceAll = slices.Clone(c.ReplaceAll)
	return c
}

// IsEmpty reports whether the changeset requests nothing.
func (c Changeset) IsEmpty() bool {
	return !c.hasItemOps() && !c.Replace && !c.ReloadAll && c.Configuration == nil
}

func (c Changeset) hasItemOps() bool {
	return len(c.Removals) > 0 || len(c.RemovedIndexes) > 0 || len(c.Insertions) > 0 ||
		len(c.Updates) > 0 || len(c.Moves) > 0
}

// canonicalValue returns the changeset as canonical-JSON input. Models are
// reduced with ModelValue and the configuration to its size range.
func (c Changeset) canonicalValue() map[string]any {
	obj := map[string]any{}
	if len(c.Removals) > 0 {
		ids := make([]any, len(c.Removals))
		for i, id := range c.Removals {
			ids[i] = id
		}
		obj["remove"] = ids
	}
	if len(c.RemovedIndexes) > 0 {
		idx := make([]any, len(c.RemovedIndexes))
		for i, n := range c.RemovedIndexes {
			idx[i] = n
		}
		obj["remove_at"] = idx
	}
	if len(c.Insertions) > 0 {
		ins := make([]any, len(c.Insertions))
		for i, in := range c.Insertions {
			ins[i] = map[string]any{"id": in.ID, "model": ModelValue(in.Model), "index": in.Index}
		}
		obj["insert"] = ins
	}
	if len(c.Updates) > 0 {
		ups := make([]any, len(c.Updates))
		for i, u := range c.Updates {
			ups[i] = map[string]any{"id": u.ID, "model": ModelValue(u.Model)}
		}
		obj["update"] = ups
	}
	if len(c.Moves) > 0 {
		mv := make([]any, len(c.Moves))
		for i, m := range c.Moves {
			mv[i] = map[string]any{"from": m.From, "to": m.To}
		}
		obj["move"] = mv
	}
	if c.Replace {
		entries := make([]any, len(c.ReplaceAll))
		for i, e := range c.ReplaceAll {
			entries[i] = map[string]any{"id": e.ID, "model": ModelValue(e.Model)}
		}
		obj["replace_all"] = entries
	}
	if c.ReloadAll {
		obj["reload_all"] = true
	}
	if c.Configuration != nil {
		obj["configuration"] = sizeRangeValue(c.Configuration.SizeRange)
	}
	return obj
}
