package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/listsync/internal/ir"
)

// FakeWidget records batch-update calls the way adapter.Widget issues
// them. Rows mirrors the widget's contents so tests can check that the
// index vocabulary replays to the published list.
type FakeWidget struct {
	mu    sync.Mutex
	Rows  []string
	Calls []string
	// Err holds the last batch that failed to replay.
	Err error

	batch  *ir.AppliedChanges
	render func(index int) string
}

// NewFakeWidget creates a widget whose inserted and reloaded rows are
// produced by render(resultIndex).
func NewFakeWidget(render func(index int) string) *FakeWidget {
	if render == nil {
		render = func(int) string { return "" }
	}
	return &FakeWidget{render: render}
}

// BeginUpdates starts a batch.
func (w *FakeWidget) BeginUpdates() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batch = &ir.AppliedChanges{}
	w.Calls = append(w.Calls, "begin")
}

// Remove queues removal of base rows.
func (w *FakeWidget) Remove(indexes []int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batch.Removed = append(w.batch.Removed, indexes...)
	w.Calls = append(w.Calls, fmt.Sprintf("remove %v", indexes))
}

// Insert queues insertion at result rows.
func (w *FakeWidget) Insert(indexes []int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batch.Inserted = append(w.batch.Inserted, indexes...)
	w.Calls = append(w.Calls, fmt.Sprintf("insert %v", indexes))
}

// Move queues a move from a base row to a result row.
func (w *FakeWidget) Move(from, to int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batch.Moved = append(w.batch.Moved, ir.Move{From: from, To: to})
	w.Calls = append(w.Calls, fmt.Sprintf("move %d->%d", from, to))
}

// Reload queues a refresh of base rows.
func (w *FakeWidget) Reload(indexes []int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batch.Updated = append(w.batch.Updated, indexes...)
	w.Calls = append(w.Calls, fmt.Sprintf("reload %v", indexes))
}

// EndUpdates applies the batch with ir.ApplyToRows.
func (w *FakeWidget) EndUpdates() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Calls = append(w.Calls, "end")
	if w.batch == nil {
		return
	}
	rows, err := ir.ApplyToRows(w.Rows, w.batch, w.render)
	w.batch = nil
	if err != nil {
		w.Err = err
		return
	}
	w.Rows = rows
}

// Snapshot returns a copy of the current rows.
func (w *FakeWidget) Snapshot() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.Rows...)
}

// CallLog returns a copy of the recorded calls.
func (w *FakeWidget) CallLog() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.Calls...)
}
