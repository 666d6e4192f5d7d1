package ir

import (
	"fmt"
	"iter"
	"slices"
	"sync"
)

// ItemList is a read-only ordered list of identities and models.
// Both Snapshot and Projection implement it.
type ItemList interface {
	Len() int
	EntryAt(i int) Entry
	IndexOf(id ItemID) (int, bool)
}

// Snapshot is an immutable, versioned list of sized items together with
// the configuration that produced it.
//
// A Snapshot is never mutated after construction. Readers on any goroutine
// may hold one for as long as they like.
type Snapshot struct {
	version uint64
	items   []Item
	index   map[ItemID]int
	config  *Configuration

	modelsOnce sync.Once
	models     map[Model]int
}

// NewSnapshot builds a snapshot from items. Identities must be unique and
// models comparable. The items slice is copied.
func NewSnapshot(version uint64, items []Item, cfg *Configuration) (*Snapshot, error) {
	index := make(map[ItemID]int, len(items))
	for i, it := range items {
		if _, dup := index[it.ID]; dup {
			return nil, newChangesetError(ErrInvalidChangeset, it.ID, i, "duplicate identity %q in snapshot", it.ID)
		}
		if !IsComparableModel(it.Model) {
			return nil, newChangesetError(ErrInvalidChangeset, it.ID, i, "model of type %T is not comparable", it.Model)
		}
		index[it.ID] = i
	}
	return &Snapshot{
		version: version,
		items:   slices.Clone(items),
		index:   index,
		config:  cfg,
	}, nil
}

// MustSnapshot is like NewSnapshot but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSnapshot(version uint64, items []Item, cfg *Configuration) *Snapshot {
	s, err := NewSnapshot(version, items, cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// EmptySnapshot returns a version-0 snapshot with no items.
func EmptySnapshot(cfg *Configuration) *Snapshot {
	return &Snapshot{index: map[ItemID]int{}, config: cfg}
}

// newSnapshotUnchecked builds a snapshot whose items are already known to
// be valid. It takes ownership of items.
func newSnapshotUnchecked(version uint64, items []Item, cfg *Configuration) *Snapshot {
	index := make(map[ItemID]int, len(items))
	for i, it := range items {
		index[it.ID] = i
	}
	return &Snapshot{version: version, items: items, index: index, config: cfg}
}

// Version returns the snapshot version.
func (s *Snapshot) Version() uint64 { return s.version }

// Configuration returns the configuration the snapshot was produced under.
func (s *Snapshot) Configuration() *Configuration { return s.config }

// Len returns the number of items.
func (s *Snapshot) Len() int { return len(s.items) }

// At returns the item at index i. It panics if i is out of range.
func (s *Snapshot) At(i int) Item { return s.items[i] }

// EntryAt returns the identity and model at index i.
func (s *Snapshot) EntryAt(i int) Entry {
	it := s.items[i]
	return Entry{ID: it.ID, Model: it.Model}
}

// All iterates over (index, item) pairs in order.
func (s *Snapshot) All() iter.Seq2[int, Item] {
	return func(yield func(int, Item) bool) {
		for i, it := range s.items {
			if !yield(i, it) {
				return
			}
		}
	}
}

// Items returns a copy of the items.
func (s *Snapshot) Items() []Item { return slices.Clone(s.items) }

// IDs returns the identities in order.
func (s *Snapshot) IDs() []ItemID {
	ids := make([]ItemID, len(s.items))
	for i, it := range s.items {
		ids[i] = it.ID
	}
	return ids
}

// IndexOf returns the index of id.
func (s *Snapshot) IndexOf(id ItemID) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// Lookup returns the item with the given identity.
func (s *Snapshot) Lookup(id ItemID) (Item, bool) {
	i, ok := s.index[id]
	if !ok {
		return Item{}, false
	}
	return s.items[i], true
}

// IndexOfModel returns the index of the first item whose model equals m.
// The reverse map is built on first use.
func (s *Snapshot) IndexOfModel(m Model) (int, bool) {
	if !IsComparableModel(m) {
		return 0, false
	}
	s.modelsOnce.Do(func() {
		s.models = make(map[Model]int, len(s.items))
		for i := len(s.items) - 1; i >= 0; i-- {
			s.models[s.items[i].Model] = i
		}
	})
	i, ok := s.models[m]
	return i, ok
}

// TotalHeight returns the sum of item heights.
func (s *Snapshot) TotalHeight() int {
	total := 0
	for _, it := range s.items {
		total += it.Size.Height
	}
	return total
}

// String returns a compact description for logs.
func (s *Snapshot) String() string {
	if s == nil {
		return "snapshot(nil)"
	}
	return fmt.Sprintf("snapshot(v%d, %d items)", s.version, len(s.items))
}

// Projection is the unsized item list a snapshot will have once every
// pending changeset has been applied. The engine validates new changesets
// against it.
type Projection struct {
	entries []Entry
	index   map[ItemID]int
	config  *Configuration
}

// ProjectSnapshot returns the projection of s.
func ProjectSnapshot(s *Snapshot) *Projection {
	entries := make([]Entry, len(s.items))
	for i, it := range s.items {
		entries[i] = Entry{ID: it.ID, Model: it.Model}
	}
	return &Projection{entries: entries, index: s.index, config: s.config}
}

// Len returns the number of entries.
func (p *Projection) Len() int { return len(p.entries) }

// EntryAt returns the entry at index i.
func (p *Projection) EntryAt(i int) Entry { return p.entries[i] }

// IndexOf returns the index of id.
func (p *Projection) IndexOf(id ItemID) (int, bool) {
	i, ok := p.index[id]
	return i, ok
}

// Configuration returns the projected configuration.
func (p *Projection) Configuration() *Configuration { return p.config }
