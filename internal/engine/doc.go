// Package engine implements the listsync changeset synchronization engine.
//
// The engine owns the published list snapshot, a FIFO queue of pending
// changesets and the pipeline that turns (snapshot, changeset) into the next
// snapshot. Callers submit changesets from any goroutine; one goroutine runs
// Engine.Run and is the only place snapshots are published and listeners
// are called.
//
// ARCHITECTURE:
//
// Ordered Commit, Concurrent Computation:
// Each async changeset is validated against the projected tail (the list
// that will exist once everything queued so far has been applied), stamped
// with a seq from the logical Clock and appended to the queue. A worker
// goroutine then:
//  1. Sizes the items the changeset touches, in parallel (errgroup)
//  2. Waits for its predecessor's result snapshot
//  3. Re-plans against that snapshot and reuses every presized entry whose
//     model and configuration still match
//  4. Builds the next immutable snapshot and the applied-changes descriptor
//
// The Run loop commits the queue head once it has been computed, so
// publication follows submission order no matter which worker finishes
// first.
//
// Sync Flush:
// A sync changeset is queued like any other, but it is computed on the Run
// loop when it reaches the head, i.e. after every earlier transition has
// been committed. The caller blocks until that commit.
//
// Broadcast Cycle:
// Every committed transition produces exactly one announce.Cycle:
//
//	WillBeginUpdates → WillChangeState → publish → DidChangeState → DidEndUpdates
//
// A failed transition leaves the published snapshot untouched and
// broadcasts WillBeginUpdates → TransitionDidFail → DidEndUpdates with an
// empty descriptor.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Transitions are stamped with Clock.Next() under the submit lock. Journal
// rows and traces order by seq, never by wall-clock time.
//
// No Cancellation:
// A queued transition always runs to completion and is always committed.
// Cancelling a sync caller's context only stops the caller waiting.
package engine
