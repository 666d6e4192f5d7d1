package engine

import (
	"errors"
	"fmt"
)

// pendingQuota bounds the number of transitions waiting to be committed.
//
// A listener that submits a new changeset from every DidEndUpdates callback
// never lets the queue drain; the quota turns that into an error at the
// submitting call site instead of unbounded growth. A limit of 0 disables
// the check.
type pendingQuota struct {
	limit int
}

// Check returns a QueueLimitError if one more transition would exceed the
// limit.
func (q pendingQuota) Check(pending int) error {
	if q.limit <= 0 || pending < q.limit {
		return nil
	}
	return &QueueLimitError{Pending: pending, Limit: q.limit}
}

// QueueLimitError is returned when a submission would exceed the pending
// transition limit set with WithMaxPending. Nothing is enqueued.
type QueueLimitError struct {
	Pending int // transitions already queued
	Limit   int // configured maximum
}

// Error implements the error interface.
func (e *QueueLimitError) Error() string {
	return fmt.Sprintf("pending transition limit reached: %d queued, limit %d", e.Pending, e.Limit)
}

// IsQueueLimitError returns true if err is a QueueLimitError.
// Uses errors.As to handle wrapped errors.
func IsQueueLimitError(err error) bool {
	var qe *QueueLimitError
	return errors.As(err, &qe)
}
