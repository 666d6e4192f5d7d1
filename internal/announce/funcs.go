package announce

import (
	"context"

	"github.com/roach88/listsync/internal/ir"
)

// Funcs adapts plain functions to Listener and FailureListener. Nil fields
// are skipped. Register a *Funcs, since Funcs values are not comparable.
type Funcs struct {
	OnWillBeginUpdates func(ctx context.Context)
	OnWillChangeState  func(ctx context.Context, next *ir.Snapshot)
	OnDidChangeState   func(ctx context.Context, prev, next *ir.Snapshot)
	OnDidEndUpdates    func(ctx context.Context, prev, next *ir.Snapshot, changes *ir.AppliedChanges)
	OnTransitionFailed func(ctx context.Context, state *ir.Snapshot, err error)
}

var (
	_ Listener        = (*Funcs)(nil)
	_ FailureListener = (*Funcs)(nil)
)

func (f *Funcs) WillBeginUpdates(ctx context.Context) {
	if f.OnWillBeginUpdates != nil {
		f.OnWillBeginUpdates(ctx)
	}
}

func (f *Funcs) WillChangeState(ctx context.Context, next *ir.Snapshot) {
	if f.OnWillChangeState != nil {
		f.OnWillChangeState(ctx, next)
	}
}

func (f *Funcs) DidChangeState(ctx context.Context, prev, next *ir.Snapshot) {
	if f.OnDidChangeState != nil {
		f.OnDidChangeState(ctx, prev, next)
	}
}

func (f *Funcs) DidEndUpdates(ctx context.Context, prev, next *ir.Snapshot, changes *ir.AppliedChanges) {
	if f.OnDidEndUpdates != nil {
		f.OnDidEndUpdates(ctx, prev, next, changes)
	}
}

func (f *Funcs) TransitionDidFail(ctx context.Context, state *ir.Snapshot, err error) {
	if f.OnTransitionFailed != nil {
		f.OnTransitionFailed(ctx, state, err)
	}
}
