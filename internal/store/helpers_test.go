package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/roach88/listsync/internal/ir"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// lenSizer sizes a model by the length of its text, one row high.
var lenSizer = ir.SizerFunc(func(_ context.Context, m ir.Model, _ *ir.Configuration) (ir.Size, error) {
	return ir.Size{Width: len(fmt.Sprint(m)), Height: 1}, nil
})

func newTestConfig(r ir.SizeRange) *ir.Configuration {
	return ir.NewConfiguration(lenSizer, r)
}

// seedSnapshot builds a version-1 snapshot holding entries.
func seedSnapshot(t *testing.T, cfg *ir.Configuration, entries ...ir.Entry) *ir.Snapshot {
	t.Helper()
	items := make([]ir.Item, len(entries))
	for i, e := range entries {
		s, err := cfg.Size(context.Background(), e.Model)
		if err != nil {
			t.Fatalf("size %q: %v", e.ID, err)
		}
		items[i] = ir.Item{ID: e.ID, Model: e.Model, Size: s}
	}
	return ir.MustSnapshot(1, items, cfg)
}

func entry(id string, model ir.Model) ir.Entry {
	return ir.Entry{ID: ir.ItemID(id), Model: model}
}
