package tui

import (
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/listsync/internal/adapter"
	"github.com/roach88/listsync/internal/ir"
)

var _ adapter.Widget = (*ListView)(nil)

// Row is one rendered line group of the list.
type Row struct {
	Text string
	// Fresh marks rows inserted or reloaded by the last batch.
	Fresh bool
}

// ListView is a terminal list widget driven by an adapter.Adapter.
//
// Batch calls arrive on the engine's owner loop; Rows is read from the
// Bubble Tea goroutine. Both go through mu.
type ListView struct {
	mu      sync.Mutex
	rows    []Row
	batch   *ir.AppliedChanges
	render  func(index int) string
	notify  func()
	batches int
	err     error
}

// NewListView creates a list whose inserted and reloaded rows are rendered
// by render(resultIndex).
func NewListView(render func(index int) string) *ListView {
	return &ListView{render: render}
}

// SetNotify registers a callback run after every batch, outside the lock.
func (v *ListView) SetNotify(fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notify = fn
}

// Load replaces the rows without a batch.
func (v *ListView) Load(texts []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = make([]Row, len(texts))
	for i, t := range texts {
		v.rows[i] = Row{Text: t}
	}
}

// BeginUpdates implements adapter.Widget.
func (v *ListView) BeginUpdates() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.batch = &ir.AppliedChanges{}
}

// Remove implements adapter.Widget.
func (v *ListView) Remove(indexes []int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.batch.Removed = append(v.batch.Removed, indexes...)
}

// Insert implements adapter.Widget.
func (v *ListView) Insert(indexes []int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.batch.Inserted = append(v.batch.Inserted, indexes...)
}

// Move implements adapter.Widget.
func (v *ListView) Move(from, to int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.batch.Moved = append(v.batch.Moved, ir.Move{From: from, To: to})
}

// Reload implements adapter.Widget.
func (v *ListView) Reload(indexes []int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.batch.Updated = append(v.batch.Updated, indexes...)
}

// EndUpdates implements adapter.Widget.
func (v *ListView) EndUpdates() {
	v.mu.Lock()
	notify := v.notify
	if v.batch != nil {
		v.applyLocked()
	}
	v.mu.Unlock()

	if notify != nil {
		notify()
	}
}

func (v *ListView) applyLocked() {
	stale := make([]Row, len(v.rows))
	for i, r := range v.rows {
		stale[i] = Row{Text: r.Text}
	}
	rows, err := ir.ApplyToRows(stale, v.batch, func(i int) Row {
		return Row{Text: v.render(i), Fresh: true}
	})
	v.batch = nil
	v.batches++
	if err != nil {
		v.err = err
		return
	}
	v.rows = rows
	v.err = nil
}

// Rows returns a copy of the rows.
func (v *ListView) Rows() []Row {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Row(nil), v.rows...)
}

// Len returns the number of rows.
func (v *ListView) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.rows)
}

// Height returns the number of terminal lines the rows occupy.
func (v *ListView) Height() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	h := 0
	for _, r := range v.rows {
		h += lipgloss.Height(r.Text)
	}
	return h
}

// Batches returns how many batches have been applied.
func (v *ListView) Batches() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.batches
}

// Err returns the error from the last batch, if it could not be applied.
func (v *ListView) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}
