package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/listsync/internal/engine"
	"github.com/roach88/listsync/internal/ir"
	"github.com/roach88/listsync/internal/testutil"
)

// DefaultTimeout bounds a whole scenario run.
const DefaultTimeout = 10 * time.Second

// CodeQueueLimit is reported for steps rejected by engine.WithMaxPending.
const CodeQueueLimit = "QUEUE_LIMIT"

// Option configures Run.
type Option func(*runner)

// WithLogger sets the engine logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(r *runner) {
		r.logger = l
	}
}

// WithTimeout bounds the run. Values below 1 mean DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithWorkers sets the engine's sizing parallelism.
func WithWorkers(n int) Option {
	return func(r *runner) {
		r.workers = n
	}
}

type runner struct {
	logger  *slog.Logger
	timeout time.Duration
	workers int

	sizer *testutil.GatedSizer
	rec   *testutil.Recorder
	eng   *engine.Engine
}

// Run executes a scenario against a fresh engine and returns the result.
//
// Execution flow:
//  1. Size the initial items and publish them as version 0
//  2. Start the engine with sequential tokens and a held sizer
//  3. Run steps in order; a sync step first releases held sizing
//  4. Release everything and wait for the queue to drain
//  5. Evaluate expectations
//
// The returned error covers setup failures and timeouts only. Step errors
// and unmet expectations are reported in Result.Errors.
func Run(ctx context.Context, sc *Scenario, opts ...Option) (*Result, error) {
	r := &runner{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout: DefaultTimeout,
		workers: 4,
		sizer:   testutil.NewGatedSizer(),
		rec:     testutil.NewRecorder(),
	}
	for _, opt := range opts {
		opt(r)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cfg := r.configuration(sc.Width)
	seed, err := r.seed(ctx, cfg, sc.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to seed scenario %q: %w", sc.Name, err)
	}

	r.eng = engine.New(cfg,
		engine.WithInitialState(seed),
		engine.WithTokenGenerator(testutil.NewSequentialTokens("t")),
		engine.WithLogger(r.logger),
		engine.WithWorkers(r.workers),
	)
	r.eng.AddListener(r.rec)

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- r.eng.Run(runCtx) }()
	defer func() {
		r.sizer.ReleaseAll()
		stop()
		<-done
	}()

	result := NewResult()
	r.sizer.HoldAll()
	for i, step := range sc.Steps {
		result.Steps = append(result.Steps, r.execStep(ctx, i, step))
	}
	r.sizer.ReleaseAll()

	if err := r.eng.WaitIdle(ctx); err != nil {
		return nil, fmt.Errorf("scenario %q did not settle: %w", sc.Name, err)
	}

	result.Final = r.eng.CurrentState()
	for _, c := range r.rec.Cycles() {
		result.Cycles = append(result.Cycles, cycleResult(c))
	}

	for i, sr := range result.Steps {
		if msg := checkStep(sc.Steps[i], sr); msg != "" {
			result.AddError(msg)
		}
	}
	for _, msg := range EvaluateExpectations(result, sc.Expect) {
		result.AddError(msg)
	}
	return result, nil
}

func (r *runner) configuration(width int) *ir.Configuration {
	return ir.NewConfiguration(r.sizer, ir.SizeRange{Max: ir.Size{Width: width}})
}

// seed sizes the initial items and wraps them as version 0.
func (r *runner) seed(ctx context.Context, cfg *ir.Configuration, items []EntrySpec) (*ir.Snapshot, error) {
	entries := make([]ir.Entry, len(items))
	for i, it := range items {
		entries[i] = ir.Entry{ID: ir.ItemID(it.ID), Model: it.Model}
	}
	sized, _, err := engine.Transition(ctx, ir.EmptySnapshot(cfg), ir.NewChangeset().WithReplaceAll(entries...), nil, r.workers)
	if err != nil {
		return nil, err
	}
	return ir.NewSnapshot(0, sized.Items(), cfg)
}

// execStep runs one step. Sync steps release held sizing for their
// duration so earlier async work can drain ahead of them.
func (r *runner) execStep(ctx context.Context, i int, step Step) StepResult {
	sr := StepResult{Index: i + 1, Kind: step.Kind(), Mode: step.Mode()}

	if sr.Mode == ir.ModeSync {
		r.sizer.ReleaseAll()
		defer r.sizer.HoldAll()
	}

	switch {
	case step.Apply != nil:
		cs := step.Apply.Changeset()
		sr.Summary = DescribeChangeset(cs)
		sr.Err = r.eng.ApplyChangeset(ctx, cs, sr.Mode, nil)
	case step.Reload != nil:
		sr.Err = r.eng.Reload(ctx, sr.Mode, nil)
	case step.Configure != nil:
		sr.Summary = fmt.Sprintf("width=%d", step.Configure.Width)
		sr.Err = r.eng.UpdateConfiguration(ctx, r.configuration(step.Configure.Width), sr.Mode, nil)
	case step.FailModel != nil:
		msg := step.FailModel.Error
		if msg == "" {
			msg = "sizer failure"
		}
		sr.Summary = fmt.Sprintf("%v: %s", step.FailModel.Model, msg)
		r.sizer.Fail(step.FailModel.Model, errors.New(msg))
	}
	sr.Code = errorCode(sr.Err)
	return sr
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if engine.IsQueueLimitError(err) {
		return CodeQueueLimit
	}
	if code := engine.Code(err); code != "" {
		return string(code)
	}
	return "ERROR"
}

func checkStep(step Step, sr StepResult) string {
	switch {
	case step.ExpectError == "" && sr.Err != nil:
		return fmt.Sprintf("step %d (%s): unexpected error: %v", sr.Index, sr.Kind, sr.Err)
	case step.ExpectError != "" && sr.Err == nil:
		return fmt.Sprintf("step %d (%s): expected %s, got no error", sr.Index, sr.Kind, step.ExpectError)
	case step.ExpectError != "" && sr.Code != step.ExpectError:
		return fmt.Sprintf("step %d (%s): expected %s, got %s", sr.Index, sr.Kind, step.ExpectError, sr.Code)
	}
	return ""
}

func cycleResult(c testutil.Cycle) CycleResult {
	cr := CycleResult{
		PrevVersion: c.Prev.Version(),
		Version:     c.Next.Version(),
		Changes:     c.Changes.String(),
		Err:         c.Err,
		Items:       RenderItems(c.Next),
	}
	if c.Changes != nil {
		cr.Seq = c.Changes.Seq
		cr.Token = c.Changes.Token
		cr.Mode = c.Changes.Mode
	}
	return cr
}
