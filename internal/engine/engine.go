package engine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/roach88/listsync/internal/announce"
	"github.com/roach88/listsync/internal/ir"
)

// Engine serializes changesets against an immutable published snapshot.
//
// Thread-safety model:
//   - ApplyChangeset, Reload, UpdateConfiguration, SetState: safe from any
//     goroutine
//   - lookups (CurrentState, ModelForIdentity, ...): safe from any goroutine,
//     never block, always read the last published snapshot
//   - Run: must be called from exactly one goroutine, the owner loop
//
// INVARIANTS:
//   - Snapshots are published in submission order, one version at a time
//   - Only the Run goroutine publishes snapshots and invokes listeners
//   - Every committed transition, successful or not, produces exactly one
//     broadcast cycle
//   - A dispatched transition is never cancelled or discarded
type Engine struct {
	// mu guards submission: the projected tail and the order of seq
	// allocation and enqueueing. Commit takes it briefly to publish.
	mu   sync.Mutex
	tail *ir.Projection
	last *pendingOp

	queue     *opQueue
	published atomic.Pointer[ir.Snapshot]
	announcer *announce.Announcer

	clock   *Clock
	tokens  TokenGenerator
	logger  *slog.Logger
	workers int
	quota   pendingQuota

	running atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the per-transition sizing parallelism.
//
// Default: GOMAXPROCS. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.workers = n
		}
	}
}

// WithMaxPending limits how many transitions may wait in the queue.
// Submissions past the limit fail with *QueueLimitError.
//
// Default: 0 (unlimited).
func WithMaxPending(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.quota = pendingQuota{limit: n}
		}
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTokenGenerator sets the transition token generator.
// Default: UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.tokens = g
		}
	}
}

// WithClock sets the logical clock. Used to continue numbering after an
// existing journal.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithInitialState publishes s instead of an empty snapshot. The
// configuration passed to New is ignored in that case.
func WithInitialState(s *ir.Snapshot) Option {
	return func(e *Engine) {
		if s != nil {
			e.published.Store(s)
		}
	}
}

// WithAnnouncer shares an existing announcer. Default: a fresh one.
func WithAnnouncer(a *announce.Announcer) Option {
	return func(e *Engine) {
		if a != nil {
			e.announcer = a
		}
	}
}

// New creates an Engine whose initial snapshot is empty and sized under cfg.
func New(cfg *ir.Configuration, opts ...Option) *Engine {
	e := &Engine{
		queue:     newOpQueue(),
		announcer: announce.New(),
		clock:     NewClock(),
		tokens:    UUIDv7Generator{},
		logger:    slog.Default(),
		workers:   runtime.GOMAXPROCS(0),
	}
	e.published.Store(ir.EmptySnapshot(cfg))

	for _, opt := range opts {
		opt(e)
	}

	e.tail = ir.ProjectSnapshot(e.published.Load())
	return e
}

// ApplyChangeset submits cs.
//
// In ModeAsync it validates cs against the projected tail (the published
// snapshot with every earlier pending changeset applied), enqueues it,
// starts computing it on a worker goroutine and returns.
//
// In ModeSync it additionally blocks until the Run loop has committed every
// earlier transition and then this one, and returns this transition's
// computation error, if any. If ctx ends first it returns ctx.Err(); the
// transition is still applied.
//
// Validation failures are returned as *SyncError with code
// INVALID_CHANGESET or UNKNOWN_IDENTITY, and nothing is enqueued.
//
// A ModeSync call made with the context handed to a listener callback, or
// one derived from it, would wait on itself; it panics with
// CONCURRENT_SYNC_CONFLICT. The check reads only the context: a listener
// that makes a ModeSync call with an unrelated context such as
// context.Background() blocks the owner loop for good. Listeners pass the
// callback's context or use ModeAsync.
func (e *Engine) ApplyChangeset(ctx context.Context, cs ir.Changeset, mode ir.UpdateMode, userInfo ir.UserInfo) error {
	if mode == ir.ModeSync && isOwner(ctx, e) {
		panic(newConflictError())
	}

	op, err := e.submit(ctx, cs, mode, userInfo, nil)
	if err != nil {
		return err
	}
	if mode == ir.ModeAsync {
		return nil
	}
	return awaitCommit(ctx, op)
}

// SetState replaces the whole list with the items, sizes and configuration
// of s. Nothing is re-sized.
//
// It is queued behind every pending transition and blocks like a ModeSync
// ApplyChangeset. Listeners see one broadcast cycle whose descriptor has
// Reset set, removing every previous row and inserting every new one. The
// published version is the previous version plus one; s's own version is
// ignored.
//
// The journaled changeset is a replace-all with s's configuration, so a
// replay reproduces the state only if s was sized by that configuration.
func (e *Engine) SetState(ctx context.Context, s *ir.Snapshot, userInfo ir.UserInfo) error {
	if isOwner(ctx, e) {
		panic(newConflictError())
	}
	if s == nil || s.Configuration() == nil || s.Configuration().Sizer == nil {
		return &SyncError{
			Code:    ErrCodeInvalidChangeset,
			Message: "state must have a configuration with a sizer",
			Index:   -1,
		}
	}

	entries := make([]ir.Entry, s.Len())
	for i := range entries {
		entries[i] = s.EntryAt(i)
	}
	cs := ir.NewChangeset().WithReplaceAll(entries...).WithConfiguration(s.Configuration())

	op, err := e.submit(ctx, cs, ir.ModeSync, userInfo, s)
	if err != nil {
		return err
	}
	return awaitCommit(ctx, op)
}

// awaitCommit blocks until op is committed or ctx ends.
func awaitCommit(ctx context.Context, op *pendingOp) error {
	select {
	case <-op.committed:
		return op.commitErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reload re-sizes every item under the current configuration.
func (e *Engine) Reload(ctx context.Context, mode ir.UpdateMode, userInfo ir.UserInfo) error {
	return e.ApplyChangeset(ctx, ir.NewChangeset().WithReloadAll(), mode, userInfo)
}

// UpdateConfiguration replaces the configuration and re-sizes every item.
func (e *Engine) UpdateConfiguration(ctx context.Context, cfg *ir.Configuration, mode ir.UpdateMode, userInfo ir.UserInfo) error {
	if cfg == nil {
		return &SyncError{
			Code:    ErrCodeInvalidChangeset,
			Message: "configuration must not be nil",
			Index:   -1,
		}
	}
	return e.ApplyChangeset(ctx, ir.NewChangeset().WithConfiguration(cfg), mode, userInfo)
}

// submit validates cs against the tail and enqueues it.
func (e *Engine) submit(ctx context.Context, cs ir.Changeset, mode ir.UpdateMode, userInfo ir.UserInfo, install *ir.Snapshot) (*pendingOp, error) {
	cs = cs.Clone()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.queue.Closed() {
		return nil, newStoppedError("")
	}
	if err := e.quota.Check(e.queue.Len()); err != nil {
		e.logger.Warn("changeset rejected", "error", err)
		return nil, err
	}

	plan, err := ir.PlanChangeset(e.tail, e.tail.Configuration(), cs)
	if err != nil {
		se := fromPlanError(err)
		e.logger.Debug("changeset rejected",
			"code", se.Code,
			"item", se.ItemID,
			"error", se.Message,
		)
		return nil, se
	}

	op := newPendingOp(ctx, e.clock.Next(), e.tokens.Generate(), mode, cs, userInfo.Clone(), plan)
	op.install = install
	if prev, ok := e.queue.Back(); ok {
		op.prev = prev
	} else {
		op.base = e.published.Load()
	}

	e.tail = plan.Projection()
	e.last = op
	e.queue.Enqueue(op)

	e.logger.Debug("changeset queued",
		"seq", op.seq,
		"token", op.token,
		"mode", mode,
		"queued", e.queue.Len(),
	)

	if mode == ir.ModeAsync {
		go e.compute(op)
	}
	return op, nil
}

// compute runs op's transition. Async ops run it on their own goroutine;
// sync ops run it on the owner loop once they reach the front of the queue.
func (e *Engine) compute(op *pendingOp) {
	if op.install != nil {
		e.computeInstall(op)
		return
	}

	var pre map[ir.ItemID]presized
	if op.mode == ir.ModeAsync {
		pre = presize(op.ctx, op.plan, e.workers)
	}

	base := op.resolveBase()
	next, changes, err := computeTransition(op.ctx, base, op.cs, op.userInfo, pre, e.workers)
	if err != nil {
		op.finish(base, nil, NewComputationError(op.token, err))
		return
	}
	op.stamp(changes)
	op.finish(next, changes, nil)
}

// computeInstall publishes op.install's items on top of op's base. Sizes
// are taken as given.
func (e *Engine) computeInstall(op *pendingOp) {
	base := op.resolveBase()
	next, err := ir.NewSnapshot(base.Version()+1, op.install.Items(), op.install.Configuration())
	if err != nil {
		op.finish(base, nil, NewComputationError(op.token, err))
		return
	}
	changes := ir.ResetChanges(base.Len(), next.Len())
	changes.UserInfo = op.userInfo.Clone()
	op.stamp(changes)

	e.logger.Debug("state replaced",
		"seq", op.seq,
		"token", op.token,
		"from", base.Len(),
		"to", next.Len(),
	)
	op.finish(next, changes, nil)
}

// Run starts the owner loop. It commits computed transitions in
// submission order and delivers every listener callback.
// Blocks until ctx is cancelled or Stop() is called and the queue drains.
//
// Must be called from exactly one goroutine.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("engine: Run called twice")
	}
	defer e.running.Store(false)

	e.logger.Info("engine starting",
		"version", e.CurrentState().Version(),
		"workers", e.workers,
	)
	owner := withOwner(ctx, e)

	for {
		op, ok := e.queue.Peek()
		if !ok {
			select {
			case <-ctx.Done():
				e.logger.Info("engine stopping: context cancelled")
				e.abandon()
				return ctx.Err()
			case <-e.queue.Wait():
				if e.queue.Closed() && e.queue.Len() == 0 {
					e.logger.Info("engine stopping: queue closed")
					return nil
				}
			}
			continue
		}

		if op.mode == ir.ModeSync && !op.isDone() {
			e.compute(op)
		}

		select {
		case <-op.done:
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled",
				"pending", e.queue.Len(),
			)
			e.abandon()
			return ctx.Err()
		}

		e.commit(owner, op)
	}
}

// commit publishes op's result and broadcasts exactly one cycle.
// Called only from Run.
func (e *Engine) commit(ctx context.Context, op *pendingOp) {
	prev := e.published.Load()
	cycle := e.announcer.Begin()
	cycle.WillBeginUpdates(ctx)

	if op.err != nil {
		e.logger.Error("transition failed",
			"seq", op.seq,
			"token", op.token,
			"mode", op.mode,
			"version", prev.Version(),
			"error", op.err,
		)
		cycle.TransitionDidFail(ctx, prev, op.err)

		e.mu.Lock()
		e.queue.Pop()
		e.rebuildTailLocked()
		e.mu.Unlock()

		cycle.DidEndUpdates(ctx, prev, prev, &ir.AppliedChanges{
			UserInfo:  op.userInfo,
			Seq:       op.seq,
			Token:     op.token,
			Mode:      op.mode,
			Changeset: op.cs,
		})
		op.commitErr = op.err
		close(op.committed)
		return
	}

	next := op.result
	cycle.WillChangeState(ctx, next)

	e.mu.Lock()
	e.published.Store(next)
	e.queue.Pop()
	e.mu.Unlock()

	e.logger.Debug("transition committed",
		"seq", op.seq,
		"token", op.token,
		"mode", op.mode,
		"version", next.Version(),
		"changes", op.changes.String(),
	)

	cycle.DidChangeState(ctx, prev, next)
	cycle.DidEndUpdates(ctx, prev, next, op.changes)
	close(op.committed)
}

// rebuildTailLocked recomputes the projected tail from the published
// snapshot after a failed transition. Queued changesets that no longer plan
// cleanly are skipped here; their workers fail them when they run.
func (e *Engine) rebuildTailLocked() {
	tail := ir.ProjectSnapshot(e.published.Load())
	for _, op := range e.queue.Items() {
		plan, err := ir.PlanChangeset(tail, tail.Configuration(), op.cs)
		if err != nil {
			e.logger.Debug("queued changeset no longer valid",
				"seq", op.seq,
				"token", op.token,
				"error", err,
			)
			continue
		}
		tail = plan.Projection()
	}
	e.tail = tail
}

// abandon closes the queue and releases every sync caller still waiting.
func (e *Engine) abandon() {
	e.mu.Lock()
	e.queue.Close()
	ops := e.queue.Drain()
	e.tail = ir.ProjectSnapshot(e.published.Load())
	e.mu.Unlock()

	for _, op := range ops {
		if op.mode == ir.ModeSync && !op.isDone() {
			// Release async successors chained behind this op.
			go func() {
				op.finish(op.resolveBase(), nil, newStoppedError(op.token))
			}()
		}
		op.commitErr = newStoppedError(op.token)
		close(op.committed)
	}
	if len(ops) > 0 {
		e.logger.Info("abandoned pending transitions", "count", len(ops))
	}
}

// Stop closes the queue. Run commits whatever is already queued and then
// returns. Later submissions fail with ENGINE_STOPPED.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue.Close()
}

// WaitIdle blocks until every transition submitted before the call has
// been committed, or ctx ends.
//
// Commits happen in submission order, so waiting for the most recently
// submitted transition is enough. It returns once that transition's
// DidEndUpdates callbacks have run.
func (e *Engine) WaitIdle(ctx context.Context) error {
	e.mu.Lock()
	last := e.last
	e.mu.Unlock()
	if last == nil {
		return nil
	}
	select {
	case <-last.committed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CurrentState returns the last published snapshot.
func (e *Engine) CurrentState() *ir.Snapshot {
	return e.published.Load()
}

// ModelForIdentity returns the published model for id.
func (e *Engine) ModelForIdentity(id ir.ItemID) (ir.Model, bool) {
	it, ok := e.published.Load().Lookup(id)
	if !ok {
		return nil, false
	}
	return it.Model, true
}

// IdentityForModel returns the published identity of the first item whose
// model equals m.
func (e *Engine) IdentityForModel(m ir.Model) (ir.ItemID, bool) {
	s := e.published.Load()
	i, ok := s.IndexOfModel(m)
	if !ok {
		return "", false
	}
	return s.At(i).ID, true
}

// SizeForIdentity returns the published size for id.
func (e *Engine) SizeForIdentity(id ir.ItemID) (ir.Size, bool) {
	it, ok := e.published.Load().Lookup(id)
	if !ok {
		return ir.Size{}, false
	}
	return it.Size, true
}

// AddListener registers l. Idempotent.
func (e *Engine) AddListener(l announce.Listener) {
	e.announcer.Add(l)
}

// RemoveListener unregisters l. Idempotent.
func (e *Engine) RemoveListener(l announce.Listener) {
	e.announcer.Remove(l)
}

// QueueLen returns the number of transitions not yet committed.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}
