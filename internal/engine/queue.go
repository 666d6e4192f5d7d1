package engine

import (
	"slices"
	"sync"
)

// opQueue is a thread-safe FIFO of pending transitions.
//
// Submitters append at the back; the Run loop peeks at the front, waits for
// that transition to be computed, and pops it once it has been committed.
// The queue is unbounded so async submission never blocks.
//
// A buffered signal channel (size 1) lets the Run loop wait for work with a
// select that also watches its context.
type opQueue struct {
	mu     sync.Mutex
	ops    []*pendingOp
	closed bool
	signal chan struct{}
}

func newOpQueue() *opQueue {
	return &opQueue{
		ops:    make([]*pendingOp, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds op to the back of the queue.
// Returns false if the queue is closed.
func (q *opQueue) Enqueue(op *pendingOp) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.ops = append(q.ops, op)

	// Non-blocking; the size-1 buffer coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Peek returns the front op without removing it.
func (q *opQueue) Peek() (*pendingOp, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ops) == 0 {
		return nil, false
	}
	return q.ops[0], true
}

// Back returns the most recently enqueued op.
func (q *opQueue) Back() (*pendingOp, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ops) == 0 {
		return nil, false
	}
	return q.ops[len(q.ops)-1], true
}

// Pop removes and returns the front op.
func (q *opQueue) Pop() (*pendingOp, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ops) == 0 {
		return nil, false
	}
	op := q.ops[0]

	// Nil the slot so the popped op and its snapshots can be collected.
	q.ops[0] = nil
	if len(q.ops) == 1 {
		q.ops = q.ops[:0]
	} else {
		q.ops = q.ops[1:]
	}
	return op, true
}

// Drain removes and returns every op.
func (q *opQueue) Drain() []*pendingOp {
	q.mu.Lock()
	defer q.mu.Unlock()

	ops := q.ops
	q.ops = nil
	return ops
}

// Items returns a copy of the queued ops, front first.
func (q *opQueue) Items() []*pendingOp {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.ops)
}

// Wait returns a channel that signals when ops may be available.
// The channel is closed once the queue is closed.
func (q *opQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *opQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Closed reports whether Close has been called.
func (q *opQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops further enqueues and wakes any waiter.
func (q *opQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
