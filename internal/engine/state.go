package engine

import "github.com/roach88/listsync/internal/ir"

// State is the engine's coarse scheduling state.
type State int

const (
	// StateIdle means nothing is queued.
	StateIdle State = iota
	// StateComputingAsync means one or more async transitions are queued
	// or being computed.
	StateComputingAsync
	// StateFlushingForSync means a sync transition is waiting for the
	// transitions queued ahead of it.
	StateFlushingForSync
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateComputingAsync:
		return "computing_async"
	case StateFlushingForSync:
		return "flushing_for_sync"
	default:
		return "unknown"
	}
}

// State reports the current scheduling state. A queued sync transition
// takes precedence over queued async work.
func (e *Engine) State() State {
	ops := e.queue.Items()
	if len(ops) == 0 {
		return StateIdle
	}
	for _, op := range ops {
		if op.mode == ir.ModeSync {
			return StateFlushingForSync
		}
	}
	return StateComputingAsync
}
