package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/listsync/internal/ir"
)

// GatedSizer is an ir.Sizer whose calls can be held open by the test.
//
// A model's width is the length of its fmt.Sprint form and its height is
// 1 unless overridden with SetHeight. Hold blocks sizing of specific models
// until Release; HoldAll blocks every call until ReleaseAll.
type GatedSizer struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	all     chan struct{}
	fail    map[string]error
	heights map[string]int
	calls   map[string]int
	total   int
}

// NewGatedSizer returns a sizer with every gate open.
func NewGatedSizer() *GatedSizer {
	return &GatedSizer{
		gates:   make(map[string]chan struct{}),
		fail:    make(map[string]error),
		heights: make(map[string]int),
		calls:   make(map[string]int),
	}
}

func key(m ir.Model) string {
	return fmt.Sprint(m)
}

// Hold blocks sizing of the given models until Release.
func (g *GatedSizer) Hold(models ...ir.Model) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range models {
		if _, ok := g.gates[key(m)]; !ok {
			g.gates[key(m)] = make(chan struct{})
		}
	}
}

// Release unblocks the given models.
func (g *GatedSizer) Release(models ...ir.Model) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range models {
		if ch, ok := g.gates[key(m)]; ok {
			close(ch)
			delete(g.gates, key(m))
		}
	}
}

// HoldAll blocks every call until ReleaseAll.
func (g *GatedSizer) HoldAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.all == nil {
		g.all = make(chan struct{})
	}
}

// ReleaseAll opens the global gate and every per-model gate.
func (g *GatedSizer) ReleaseAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.all != nil {
		close(g.all)
		g.all = nil
	}
	for k, ch := range g.gates {
		close(ch)
		delete(g.gates, k)
	}
}

// Fail makes sizing m return err. A nil err clears the failure.
func (g *GatedSizer) Fail(m ir.Model, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.fail, key(m))
		return
	}
	g.fail[key(m)] = err
}

// SetHeight overrides the height reported for m.
func (g *GatedSizer) SetHeight(m ir.Model, h int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.heights[key(m)] = h
}

// Calls returns how many times m has been sized.
func (g *GatedSizer) Calls(m ir.Model) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[key(m)]
}

// TotalCalls returns the number of SizeFor calls.
func (g *GatedSizer) TotalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.total
}

// SizeFor implements ir.Sizer.
func (g *GatedSizer) SizeFor(ctx context.Context, m ir.Model, _ *ir.Configuration) (ir.Size, error) {
	k := key(m)

	g.mu.Lock()
	g.calls[k]++
	g.total++
	all := g.all
	gate := g.gates[k]
	g.mu.Unlock()

	for _, ch := range []chan struct{}{all, gate} {
		if ch == nil {
			continue
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ir.Size{}, ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.fail[k]; ok {
		return ir.Size{}, err
	}
	h, ok := g.heights[k]
	if !ok {
		h = 1
	}
	return ir.Size{Width: len(k), Height: h}, nil
}
