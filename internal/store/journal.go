package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/listsync/internal/announce"
	"github.com/roach88/listsync/internal/ir"
)

// Journal is an engine listener that writes one row per broadcast cycle.
//
// Listener callbacks run on the engine's owner loop, so rows are written
// in commit order. Write errors do not stop the engine; the first one is
// kept and returned by Err.
type Journal struct {
	store  *Store
	logger *slog.Logger

	mu      sync.Mutex
	failErr error
	err     error
	written int
}

var (
	_ announce.Listener        = (*Journal)(nil)
	_ announce.FailureListener = (*Journal)(nil)
)

// NewJournal returns a journal writing to s. A nil logger discards.
func NewJournal(s *Store, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Journal{store: s, logger: logger}
}

// Checkpoint stores the full contents of snap. Call it with the engine's
// initial state before Run so Verify has a starting point.
func (j *Journal) Checkpoint(ctx context.Context, snap *ir.Snapshot) error {
	return j.store.WriteCheckpoint(ctx, snap)
}

// WillBeginUpdates implements announce.Listener.
func (j *Journal) WillBeginUpdates(ctx context.Context) {
	j.mu.Lock()
	j.failErr = nil
	j.mu.Unlock()
}

// WillChangeState implements announce.Listener.
func (j *Journal) WillChangeState(ctx context.Context, next *ir.Snapshot) {}

// DidChangeState implements announce.Listener.
func (j *Journal) DidChangeState(ctx context.Context, prev, next *ir.Snapshot) {}

// TransitionDidFail implements announce.FailureListener. The error is
// recorded on the cycle's row.
func (j *Journal) TransitionDidFail(ctx context.Context, state *ir.Snapshot, err error) {
	j.mu.Lock()
	j.failErr = err
	j.mu.Unlock()
}

// DidEndUpdates implements announce.Listener. It writes the cycle's row.
func (j *Journal) DidEndUpdates(ctx context.Context, prev, next *ir.Snapshot, changes *ir.AppliedChanges) {
	j.mu.Lock()
	failErr := j.failErr
	j.failErr = nil
	j.mu.Unlock()

	rec, err := NewRecord(prev, next, changes, failErr)
	if err == nil {
		// The row must land even if the caller's context is already done.
		err = j.store.WriteRecord(context.WithoutCancel(ctx), rec)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if err != nil {
		j.logger.Error("journal write failed", "seq", rec.Seq, "token", rec.Token, "error", err)
		if j.err == nil {
			j.err = err
		}
		return
	}
	j.written++
	j.logger.Debug("journaled transition",
		"seq", rec.Seq,
		"token", rec.Token,
		"status", rec.Status,
		"version", rec.Version,
	)
}

// Err returns the first write error, or nil.
func (j *Journal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Written returns the number of rows written.
func (j *Journal) Written() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.written
}
