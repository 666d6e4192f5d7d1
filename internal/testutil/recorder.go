package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/roach88/listsync/internal/ir"
)

// Cycle is one recorded broadcast cycle.
type Cycle struct {
	Prev    *ir.Snapshot
	Next    *ir.Snapshot
	Changes *ir.AppliedChanges
	// Err is set when the cycle reported a failed transition.
	Err error
}

// Recorder is an announce.Listener and announce.FailureListener that
// records every callback as a short event string:
//
//	begin | will v2 | did v1->v2 | fail v1: <err> | end v1->v2 <changes>
//
// It is safe for concurrent use and must be registered by pointer.
type Recorder struct {
	mu      sync.Mutex
	events  []string
	cycles  []Cycle
	failErr error
	signal  chan struct{}
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{signal: make(chan struct{}, 1)}
}

func (r *Recorder) add(ev string) {
	r.events = append(r.events, ev)
}

// WillBeginUpdates implements announce.Listener.
func (r *Recorder) WillBeginUpdates(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failErr = nil
	r.add("begin")
}

// WillChangeState implements announce.Listener.
func (r *Recorder) WillChangeState(_ context.Context, next *ir.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(fmt.Sprintf("will v%d", next.Version()))
}

// DidChangeState implements announce.Listener.
func (r *Recorder) DidChangeState(_ context.Context, prev, next *ir.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(fmt.Sprintf("did v%d->v%d", prev.Version(), next.Version()))
}

// TransitionDidFail implements announce.FailureListener.
func (r *Recorder) TransitionDidFail(_ context.Context, state *ir.Snapshot, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failErr = err
	r.add(fmt.Sprintf("fail v%d: %v", state.Version(), err))
}

// DidEndUpdates implements announce.Listener.
func (r *Recorder) DidEndUpdates(_ context.Context, prev, next *ir.Snapshot, changes *ir.AppliedChanges) {
	r.mu.Lock()
	r.add(fmt.Sprintf("end v%d->v%d %s", prev.Version(), next.Version(), changes.String()))
	r.cycles = append(r.cycles, Cycle{Prev: prev, Next: next, Changes: changes, Err: r.failErr})
	r.failErr = nil
	r.mu.Unlock()

	select {
	case r.signal <- struct{}{}:
	default:
	}
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// Cycles returns a copy of the completed cycles.
func (r *Recorder) Cycles() []Cycle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Cycle(nil), r.cycles...)
}

// CycleCount returns the number of completed cycles.
func (r *Recorder) CycleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cycles)
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.cycles = nil
	r.failErr = nil
}

// WaitCycles blocks until at least n cycles have completed or timeout
// elapses. It reports whether n was reached.
func (r *Recorder) WaitCycles(n int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if r.CycleCount() >= n {
			return true
		}
		select {
		case <-r.signal:
		case <-deadline.C:
			return r.CycleCount() >= n
		}
	}
}
