package ir

import (
	"slices"
)

// PlannedItem is one element of a planned result list.
type PlannedItem struct {
	ID    ItemID
	Model Model

	// From is the base index the item came from, or -1 for a new item.
	From int

	// Resize reports whether the item needs a fresh size. When false the
	// base size is carried over.
	Resize bool
}

// Plan is a validated changeset laid out against a specific base list.
type Plan struct {
	Changeset Changeset

	// Items is the resulting list in order.
	Items []PlannedItem

	// Config is the configuration of the resulting list.
	Config        *Configuration
	ConfigChanged bool

	// Removed holds base indexes, ascending.
	Removed []int
	// Inserted holds result indexes, ascending.
	Inserted []int
	// Moved holds explicit relocations, ordered by From.
	Moved []Move
}

// PlanChangeset validates cs against base and lays out the resulting list.
//
// Errors are *ChangesetError values wrapping ErrInvalidChangeset or
// ErrUnknownIdentity.
func PlanChangeset(base ItemList, baseCfg *Configuration, cs Changeset) (*Plan, error) {
	p := &Plan{Changeset: cs, Config: baseCfg}
	if cs.Configuration != nil {
		if cs.Configuration.Sizer == nil {
			return nil, newChangesetError(ErrInvalidChangeset, "", -1, "replacement configuration has no sizer")
		}
		p.Config = cs.Configuration
		p.ConfigChanged = cs.Configuration != baseCfg
	}
	resizeAll := cs.ReloadAll || p.ConfigChanged

	if cs.Replace {
		if cs.hasItemOps() {
			return nil, newChangesetError(ErrInvalidChangeset, "", -1, "replace-all cannot be combined with item operations")
		}
		if err := p.planReplace(base, cs.ReplaceAll, resizeAll); err != nil {
			return nil, err
		}
		return p, nil
	}
	if err := p.planBatch(base, cs, resizeAll); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Plan) planReplace(base ItemList, entries []Entry, resizeAll bool) error {
	seen := make(map[ItemID]struct{}, len(entries))
	before := make([]ItemID, base.Len())
	for i := range before {
		before[i] = base.EntryAt(i).ID
	}
	after := make([]ItemID, len(entries))

	p.Items = make([]PlannedItem, len(entries))
	for i, e := range entries {
		if _, dup := seen[e.ID]; dup {
			return newChangesetError(ErrInvalidChangeset, e.ID, i, "duplicate identity %q in replace-all", e.ID)
		}
		seen[e.ID] = struct{}{}
		if !IsComparableModel(e.Model) {
			return newChangesetError(ErrInvalidChangeset, e.ID, i, "model of type %T is not comparable", e.Model)
		}
		after[i] = e.ID

		from := -1
		resize := true
		if j, ok := base.IndexOf(e.ID); ok {
			from = j
			resize = resizeAll || !modelsEqual(base.EntryAt(j).Model, e.Model)
		}
		p.Items[i] = PlannedItem{ID: e.ID, Model: e.Model, From: from, Resize: resize}
	}

	d := Diff(before, after)
	p.Removed = d.Removed
	p.Inserted = d.Inserted
	p.Moved = d.Moved
	return nil
}

func (p *Plan) planBatch(base ItemList, cs Changeset, resizeAll bool) error {
	n := base.Len()
	removed := make(map[int]bool, len(cs.Removals)+len(cs.RemovedIndexes))

	for _, id := range cs.Removals {
		i, ok := base.IndexOf(id)
		if !ok {
			return newChangesetError(ErrUnknownIdentity, id, -1, "cannot remove %q: not in list", id)
		}
		if removed[i] {
			return newChangesetError(ErrInvalidChangeset, id, i, "index %d removed twice", i)
		}
		removed[i] = true
	}
	for _, i := range cs.RemovedIndexes {
		if i < 0 || i >= n {
			return newChangesetError(ErrInvalidChangeset, "", i, "remove index %d out of range [0,%d)", i, n)
		}
		if removed[i] {
			return newChangesetError(ErrInvalidChangeset, base.EntryAt(i).ID, i, "index %d removed twice", i)
		}
		removed[i] = true
	}

	moved := make(map[int]bool, len(cs.Moves))
	for _, m := range cs.Moves {
		if m.From < 0 || m.From >= n {
			return newChangesetError(ErrInvalidChangeset, "", m.From, "move source %d out of range [0,%d)", m.From, n)
		}
		id := base.EntryAt(m.From).ID
		if removed[m.From] {
			return newChangesetError(ErrInvalidChangeset, id, m.From, "index %d both removed and moved", m.From)
		}
		if moved[m.From] {
			return newChangesetError(ErrInvalidChangeset, id, m.From, "index %d moved twice", m.From)
		}
		moved[m.From] = true
	}

	updates := make(map[int]Model, len(cs.Updates))
	for _, u := range cs.Updates {
		i, ok := base.IndexOf(u.ID)
		if !ok {
			return newChangesetError(ErrUnknownIdentity, u.ID, -1, "cannot update %q: not in list", u.ID)
		}
		if removed[i] {
			return newChangesetError(ErrInvalidChangeset, u.ID, i, "cannot update removed item %q", u.ID)
		}
		if _, dup := updates[i]; dup {
			return newChangesetError(ErrInvalidChangeset, u.ID, i, "item %q updated twice", u.ID)
		}
		if !IsComparableModel(u.Model) {
			return newChangesetError(ErrInvalidChangeset, u.ID, i, "model of type %T is not comparable", u.Model)
		}
		updates[i] = u.Model
	}

	inserted := make(map[ItemID]bool, len(cs.Insertions))
	for _, in := range cs.Insertions {
		if inserted[in.ID] {
			return newChangesetError(ErrInvalidChangeset, in.ID, in.Index, "identity %q inserted twice", in.ID)
		}
		if i, ok := base.IndexOf(in.ID); ok && !removed[i] {
			return newChangesetError(ErrInvalidChangeset, in.ID, in.Index, "identity %q already in list", in.ID)
		}
		if !IsComparableModel(in.Model) {
			return newChangesetError(ErrInvalidChangeset, in.ID, in.Index, "model of type %T is not comparable", in.Model)
		}
		inserted[in.ID] = true
	}

	size := n - len(removed) + len(cs.Insertions)
	slots := make([]PlannedItem, size)
	filled := make([]bool, size)
	place := func(idx int, item PlannedItem) error {
		if idx < 0 || idx >= size {
			return newChangesetError(ErrInvalidChangeset, item.ID, idx, "destination %d out of range [0,%d)", idx, size)
		}
		if filled[idx] {
			return newChangesetError(ErrInvalidChangeset, item.ID, idx, "two items target result index %d", idx)
		}
		slots[idx] = item
		filled[idx] = true
		return nil
	}

	survivor := func(i int) PlannedItem {
		e := base.EntryAt(i)
		item := PlannedItem{ID: e.ID, Model: e.Model, From: i, Resize: resizeAll}
		if m, ok := updates[i]; ok {
			item.Model = m
			item.Resize = true
		}
		return item
	}

	for _, in := range cs.Insertions {
		if err := place(in.Index, PlannedItem{ID: in.ID, Model: in.Model, From: -1, Resize: true}); err != nil {
			return err
		}
		p.Inserted = append(p.Inserted, in.Index)
	}
	for _, m := range cs.Moves {
		if err := place(m.To, survivor(m.From)); err != nil {
			return err
		}
		p.Moved = append(p.Moved, m)
	}

	// Unmoved survivors fill the remaining slots in base order.
	slot := 0
	for i := 0; i < n; i++ {
		if removed[i] || moved[i] {
			continue
		}
		for filled[slot] {
			slot++
		}
		slots[slot] = survivor(i)
		filled[slot] = true
	}

	p.Items = slots
	p.Removed = make([]int, 0, len(removed))
	for i := range removed {
		p.Removed = append(p.Removed, i)
	}
	slices.Sort(p.Removed)
	slices.Sort(p.Inserted)
	slices.SortFunc(p.Moved, func(a, b Move) int { return a.From - b.From })
	return nil
}

// Projection returns the unsized list the plan produces.
func (p *Plan) Projection() *Projection {
	entries := make([]Entry, len(p.Items))
	index := make(map[ItemID]int, len(p.Items))
	for i, it := range p.Items {
		entries[i] = Entry{ID: it.ID, Model: it.Model}
		index[it.ID] = i
	}
	return &Projection{entries: entries, index: index, config: p.Config}
}

// Build assembles the next snapshot from base and the computed sizes.
//
// sizes must have one entry per planned item. Entries for items with Resize
// unset are ignored and the base size is carried over. The returned
// descriptor's Updated field lists base indexes of survivors whose model or
// size changed, moved or not.
func (p *Plan) Build(base *Snapshot, sizes []Size, userInfo UserInfo) (*Snapshot, *AppliedChanges) {
	items := make([]Item, len(p.Items))

	var updated []int
	for i, pi := range p.Items {
		item := Item{ID: pi.ID, Model: pi.Model}
		if pi.Resize || pi.From < 0 {
			item.Size = sizes[i]
		} else {
			item.Size = base.At(pi.From).Size
		}
		items[i] = item

		if pi.From >= 0 {
			prev := base.At(pi.From)
			if !modelsEqual(prev.Model, item.Model) || prev.Size != item.Size {
				updated = append(updated, pi.From)
			}
		}
	}
	slices.Sort(updated)

	next := newSnapshotUnchecked(base.Version()+1, items, p.Config)
	changes := &AppliedChanges{
		Removed:  slices.Clone(p.Removed),
		Inserted: slices.Clone(p.Inserted),
		Moved:    slices.Clone(p.Moved),
		Updated:  updated,
		UserInfo: userInfo.Clone(),
	}
	return next, changes
}
