package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/listsync/internal/ir"
)

func TestSequentialTokens(t *testing.T) {
	g := NewSequentialTokens("")
	assert.Equal(t, "t1", g.Generate())
	assert.Equal(t, "t2", g.Generate())
	assert.Equal(t, 2, g.Count())

	p := NewSequentialTokens("op-")
	assert.Equal(t, "op-1", p.Generate())
}

func TestSequentialTokens_ConcurrentUnique(t *testing.T) {
	g := NewSequentialTokens("t")
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				tok := g.Generate()
				mu.Lock()
				seen[tok] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 1000)
}

func TestGatedSizer_DefaultSize(t *testing.T) {
	g := NewGatedSizer()
	g.SetHeight("tall", 3)

	s, err := g.SizeFor(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, ir.Size{Width: 5, Height: 1}, s)

	s, err = g.SizeFor(context.Background(), "tall", nil)
	require.NoError(t, err)
	assert.Equal(t, ir.Size{Width: 4, Height: 3}, s)

	assert.Equal(t, 1, g.Calls("hello"))
	assert.Equal(t, 2, g.TotalCalls())
}

func TestGatedSizer_HoldRelease(t *testing.T) {
	g := NewGatedSizer()
	g.Hold("a")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = g.SizeFor(context.Background(), "a", nil)
	}()

	select {
	case <-done:
		t.Fatal("held model was sized")
	case <-time.After(20 * time.Millisecond):
	}

	g.Release("a")
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("release did not unblock")
	}
}

func TestGatedSizer_HoldAllRespectsContext(t *testing.T) {
	g := NewGatedSizer()
	g.HoldAll()
	defer g.ReleaseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := g.SizeFor(ctx, "x", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGatedSizer_Fail(t *testing.T) {
	g := NewGatedSizer()
	boom := errors.New("boom")
	g.Fail("bad", boom)

	_, err := g.SizeFor(context.Background(), "bad", nil)
	assert.ErrorIs(t, err, boom)

	g.Fail("bad", nil)
	_, err = g.SizeFor(context.Background(), "bad", nil)
	assert.NoError(t, err)
}

func TestFakeWidget_BatchReplay(t *testing.T) {
	w := NewFakeWidget(func(i int) string { return fmt.Sprintf("n%d", i) })
	w.Rows = []string{"a", "b", "c", "d"}

	// remove b, move d to the front, insert at result 2
	w.BeginUpdates()
	w.Remove([]int{1})
	w.Move(3, 0)
	w.Insert([]int{2})
	w.EndUpdates()

	assert.Equal(t, []string{"d", "a", "n2", "c"}, w.Snapshot())
	assert.Equal(t, []string{"begin", "remove [1]", "move 3->0", "insert [2]", "end"}, w.CallLog())
}

func TestFakeWidget_Reload(t *testing.T) {
	w := NewFakeWidget(func(i int) string { return "fresh" })
	w.Rows = []string{"a", "b"}

	w.BeginUpdates()
	w.Reload([]int{1})
	w.EndUpdates()

	assert.Equal(t, []string{"a", "fresh"}, w.Snapshot())
}
