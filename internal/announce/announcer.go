// Package announce fans engine lifecycle callbacks out to registered
// listeners in registration order.
//
// The listener list is copy-on-write: Add and Remove publish a fresh slice
// and never touch one that a broadcast is iterating. A broadcast cycle
// captures the list when it begins, so a listener added mid-cycle is first
// notified by the next cycle, while a listener removed mid-cycle is skipped
// for the rest of the current one, even if it is added back.
package announce

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/roach88/listsync/internal/ir"
)

// Listener observes state transitions. All callbacks for one transition
// arrive on the engine's owner goroutine before any callback for the next.
//
// The snapshots and descriptor are read-only.
type Listener interface {
	WillBeginUpdates(ctx context.Context)
	WillChangeState(ctx context.Context, next *ir.Snapshot)
	DidChangeState(ctx context.Context, prev, next *ir.Snapshot)
	DidEndUpdates(ctx context.Context, prev, next *ir.Snapshot, changes *ir.AppliedChanges)
}

// FailureListener is an optional capability. Listeners implementing it are
// told when a transition could not be computed, in place of the
// WillChangeState/DidChangeState pair.
type FailureListener interface {
	TransitionDidFail(ctx context.Context, state *ir.Snapshot, err error)
}

// Announcer is an ordered set of distinct listeners.
// Safe for concurrent use.
type Announcer struct {
	mu        sync.Mutex
	listeners []*registration
}

// registration is one Add of a listener. Removing the listener marks it
// removed; adding the listener again creates a new registration, so a cycle
// that began before the removal keeps skipping it.
type registration struct {
	l       Listener
	removed atomic.Bool
}

// New returns an empty announcer.
func New() *Announcer {
	return &Announcer{}
}

func (a *Announcer) indexLocked(l Listener) int {
	return slices.IndexFunc(a.listeners, func(r *registration) bool { return r.l == l })
}

// Add registers l. Adding a registered listener is a no-op.
//
// Listeners are compared with ==, so the dynamic type must be comparable
// (typically a pointer). Add panics otherwise.
func (a *Announcer) Add(l Listener) {
	if l == nil {
		return
	}
	if !reflect.TypeOf(l).Comparable() {
		panic(fmt.Sprintf("announce: listener of type %T is not comparable; register a pointer", l))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.indexLocked(l) >= 0 {
		return
	}
	next := slices.Clone(a.listeners)
	next = append(next, &registration{l: l})
	a.listeners = next
}

// Remove unregisters l. Removing an absent listener is a no-op.
func (a *Announcer) Remove(l Listener) {
	if l == nil || !reflect.TypeOf(l).Comparable() {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.indexLocked(l)
	if i < 0 {
		return
	}
	a.listeners[i].removed.Store(true)
	next := slices.Clone(a.listeners)
	next = slices.Delete(next, i, i+1)
	a.listeners = next
}

// Len returns the number of registered listeners.
func (a *Announcer) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.listeners)
}

// Listeners returns the registered listeners in order.
func (a *Announcer) Listeners() []Listener {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Listener, len(a.listeners))
	for i, r := range a.listeners {
		out[i] = r.l
	}
	return out
}

// Begin starts a broadcast cycle over the listeners registered right now.
func (a *Announcer) Begin() *Cycle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return &Cycle{registrations: a.listeners}
}

// Cycle delivers the callbacks of one transition. Each call skips listeners
// removed since the cycle began, even if they were added again.
type Cycle struct {
	registrations []*registration
}

func (c *Cycle) each(fn func(Listener)) {
	for _, r := range c.registrations {
		if r.removed.Load() {
			continue
		}
		fn(r.l)
	}
}

// WillBeginUpdates notifies every listener.
func (c *Cycle) WillBeginUpdates(ctx context.Context) {
	c.each(func(l Listener) { l.WillBeginUpdates(ctx) })
}

// WillChangeState notifies every listener.
func (c *Cycle) WillChangeState(ctx context.Context, next *ir.Snapshot) {
	c.each(func(l Listener) { l.WillChangeState(ctx, next) })
}

// DidChangeState notifies every listener.
func (c *Cycle) DidChangeState(ctx context.Context, prev, next *ir.Snapshot) {
	c.each(func(l Listener) { l.DidChangeState(ctx, prev, next) })
}

// TransitionDidFail notifies every listener implementing FailureListener.
func (c *Cycle) TransitionDidFail(ctx context.Context, state *ir.Snapshot, err error) {
	c.each(func(l Listener) {
		if fl, ok := l.(FailureListener); ok {
			fl.TransitionDidFail(ctx, state, err)
		}
	})
}

// DidEndUpdates notifies every listener.
func (c *Cycle) DidEndUpdates(ctx context.Context, prev, next *ir.Snapshot, changes *ir.AppliedChanges) {
	c.each(func(l Listener) { l.DidEndUpdates(ctx, prev, next, changes) })
}
