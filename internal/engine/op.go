package engine

import (
	"context"

	"github.com/roach88/listsync/internal/ir"
)

// pendingOp is one submitted changeset on its way to publication.
//
// Submission fields never change. The computation results are written
// once, before done is closed; commitErr is written once, before committed
// is closed.
type pendingOp struct {
	seq      int64
	token    string
	mode     ir.UpdateMode
	cs       ir.Changeset
	userInfo ir.UserInfo
	ctx      context.Context // values only; never cancelled

	// plan was validated against the projected tail at submission.
	plan *ir.Plan

	// install, when set, is published wholesale instead of computing cs.
	install *ir.Snapshot

	// prev is the op queued immediately before this one. When nil, base is
	// the snapshot that was published at submission. Both are cleared once
	// the op has been computed.
	prev *pendingOp
	base *ir.Snapshot

	done    chan struct{}
	result  *ir.Snapshot // snapshot after this op; its base on failure
	changes *ir.AppliedChanges
	err     error

	committed chan struct{}
	commitErr error
}

func newPendingOp(ctx context.Context, seq int64, token string, mode ir.UpdateMode, cs ir.Changeset, userInfo ir.UserInfo, plan *ir.Plan) *pendingOp {
	return &pendingOp{
		seq:       seq,
		token:     token,
		mode:      mode,
		cs:        cs,
		userInfo:  userInfo,
		ctx:       context.WithoutCancel(ctx),
		plan:      plan,
		done:      make(chan struct{}),
		committed: make(chan struct{}),
	}
}

// finish records the computed result and releases waiters.
func (op *pendingOp) finish(result *ir.Snapshot, changes *ir.AppliedChanges, err error) {
	op.result = result
	op.changes = changes
	op.err = err
	op.prev = nil
	op.base = nil
	op.plan = nil
	op.install = nil
	close(op.done)
}

// stamp copies the transition metadata into changes.
func (op *pendingOp) stamp(changes *ir.AppliedChanges) {
	changes.Seq = op.seq
	changes.Token = op.token
	changes.Mode = op.mode
	changes.Changeset = op.cs
}

// resolveBase blocks until the predecessor has been computed and returns
// the snapshot this op applies to.
func (op *pendingOp) resolveBase() *ir.Snapshot {
	if op.prev == nil {
		return op.base
	}
	<-op.prev.done
	return op.prev.result
}

// isDone reports whether the op has been computed.
func (op *pendingOp) isDone() bool {
	select {
	case <-op.done:
		return true
	default:
		return false
	}
}
