// Package adapter drives a list widget from engine broadcasts.
//
// An Adapter is an announce.Listener. For every committed transition it
// opens exactly one widget batch, replays the applied-changes descriptor as
// Remove/Insert/Move/Reload calls and closes the batch. It never computes
// snapshots; index lookups read the last snapshot it has applied.
package adapter

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/listsync/internal/announce"
	"github.com/roach88/listsync/internal/engine"
	"github.com/roach88/listsync/internal/ir"
)

var (
	_ announce.Listener        = (*Adapter)(nil)
	_ announce.FailureListener = (*Adapter)(nil)
)

// Adapter translates engine broadcasts into widget batch updates.
//
// Thread-safety model:
//   - Listener methods: engine owner loop only
//   - lookups: safe from any goroutine, never block
type Adapter struct {
	ref    WidgetRef
	bridge Bridge
	logger *slog.Logger

	// applied is the snapshot the widget currently shows. It is swapped in
	// just before EndUpdates so the widget can read it while it redraws.
	applied atomic.Pointer[ir.Snapshot]

	transactions atomic.Int64
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithBridge sets the bounds-animation bridge. Default: none.
func WithBridge(b Bridge) Option {
	return func(a *Adapter) { a.bridge = b }
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Adapter whose widget currently shows initial.
func New(ref WidgetRef, initial *ir.Snapshot, opts ...Option) *Adapter {
	a := &Adapter{ref: ref, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	if initial == nil {
		initial = ir.EmptySnapshot(nil)
	}
	a.applied.Store(initial)
	return a
}

// Attach creates an Adapter for e's current state and registers it.
// Call it before e.Run starts or from one of e's listener callbacks, so no
// transition commits between reading the state and registering.
func Attach(e *engine.Engine, ref WidgetRef, opts ...Option) *Adapter {
	a := New(ref, e.CurrentState(), opts...)
	e.AddListener(a)
	return a
}

// WillBeginUpdates implements announce.Listener.
func (a *Adapter) WillBeginUpdates(context.Context) {}

// WillChangeState implements announce.Listener.
func (a *Adapter) WillChangeState(context.Context, *ir.Snapshot) {}

// DidChangeState implements announce.Listener.
func (a *Adapter) DidChangeState(context.Context, *ir.Snapshot, *ir.Snapshot) {}

// TransitionDidFail implements announce.FailureListener. The widget is
// left untouched.
func (a *Adapter) TransitionDidFail(_ context.Context, state *ir.Snapshot, err error) {
	a.logger.Debug("transition failed, widget unchanged",
		"version", state.Version(),
		"error", err,
	)
}

// DidEndUpdates implements announce.Listener.
func (a *Adapter) DidEndUpdates(_ context.Context, prev, next *ir.Snapshot, changes *ir.AppliedChanges) {
	if prev == next {
		return
	}

	w := a.ref.Get()
	if w == nil {
		a.applied.Store(next)
		a.logger.Debug("widget gone, skipping batch", "version", next.Version())
		return
	}

	var (
		bridgeToken any
		anim        ir.BoundsAnimation
		animate     bool
	)
	if a.bridge != nil && changes.IsPureUpdate() {
		anim, animate = boundsAnimation(changes.UserInfo)
		if animate {
			bridgeToken = a.bridge.Prepare(w, next.TotalHeight()-prev.TotalHeight())
		}
	}

	if changes != nil && changes.Reset {
		a.logger.Debug("state replaced, reloading every row",
			"from", prev.Len(),
			"to", next.Len(),
		)
	}

	w.BeginUpdates()
	if changes != nil {
		if len(changes.Removed) > 0 {
			w.Remove(changes.Removed)
		}
		if len(changes.Inserted) > 0 {
			w.Insert(changes.Inserted)
		}
		for _, m := range changes.Moved {
			w.Move(m.From, m.To)
		}
		if len(changes.Updated) > 0 {
			w.Reload(changes.Updated)
		}
	}
	a.applied.Store(next)
	w.EndUpdates()
	a.transactions.Add(1)

	if animate {
		a.bridge.Apply(bridgeToken, anim)
	}
}

// Snapshot returns the snapshot the widget currently shows.
func (a *Adapter) Snapshot() *ir.Snapshot {
	return a.applied.Load()
}

// Len returns the number of rows.
func (a *Adapter) Len() int {
	return a.applied.Load().Len()
}

// ItemAt returns the item at index.
func (a *Adapter) ItemAt(index int) (ir.Item, bool) {
	s := a.applied.Load()
	if index < 0 || index >= s.Len() {
		return ir.Item{}, false
	}
	return s.At(index), true
}

// ModelAt returns the model at index.
func (a *Adapter) ModelAt(index int) (ir.Model, bool) {
	it, ok := a.ItemAt(index)
	return it.Model, ok
}

// IdentityAt returns the identity at index.
func (a *Adapter) IdentityAt(index int) (ir.ItemID, bool) {
	it, ok := a.ItemAt(index)
	return it.ID, ok
}

// SizeAt returns the computed size at index.
func (a *Adapter) SizeAt(index int) (ir.Size, bool) {
	it, ok := a.ItemAt(index)
	return it.Size, ok
}

// IndexOfIdentity returns the row index of id.
func (a *Adapter) IndexOfIdentity(id ir.ItemID) (int, bool) {
	return a.applied.Load().IndexOf(id)
}

// IndexOfModel returns the row index of the first item whose model equals m.
func (a *Adapter) IndexOfModel(m ir.Model) (int, bool) {
	return a.applied.Load().IndexOfModel(m)
}

// Transactions returns how many widget batches have been issued.
func (a *Adapter) Transactions() int64 {
	return a.transactions.Load()
}
