package engine

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/listsync/internal/ir"
)

// presized is a size computed before the base snapshot was known. It can be
// reused only if the final plan sizes the same model under the same
// configuration.
type presized struct {
	model ir.Model
	cfg   *ir.Configuration
	size  ir.Size
	err   error
}

// presize sizes every item the submit-time plan marks for resizing. It does
// not stop at the first error; failures are kept per item and surface only
// if the final plan still needs that size.
func presize(ctx context.Context, plan *ir.Plan, workers int) map[ir.ItemID]presized {
	var idx []int
	for i, it := range plan.Items {
		if it.Resize {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil
	}

	results := make([]presized, len(idx))
	var g errgroup.Group
	g.SetLimit(workers)
	for k, i := range idx {
		it := plan.Items[i]
		g.Go(func() error {
			size, err := plan.Config.Size(ctx, it.Model)
			results[k] = presized{model: it.Model, cfg: plan.Config, size: size, err: err}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[ir.ItemID]presized, len(idx))
	for k, i := range idx {
		out[plan.Items[i].ID] = results[k]
	}
	return out
}

// sizeItems returns one size per planned item. Items that keep their base
// size get a zero entry. A reusable presized error fails the batch before
// any sizer call starts; otherwise the first sizer error aborts it.
func sizeItems(ctx context.Context, plan *ir.Plan, pre map[ir.ItemID]presized, workers int) ([]ir.Size, error) {
	sizes := make([]ir.Size, len(plan.Items))

	var todo []int
	for i, it := range plan.Items {
		if !it.Resize && it.From >= 0 {
			continue
		}
		if p, ok := pre[it.ID]; ok && p.cfg == plan.Config && p.model == it.Model {
			if p.err != nil {
				return nil, fmt.Errorf("size item %q: %w", it.ID, p.err)
			}
			sizes[i] = p.size
			continue
		}
		todo = append(todo, i)
	}
	if len(todo) == 0 {
		return sizes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, i := range todo {
		it := plan.Items[i]
		g.Go(func() error {
			size, err := plan.Config.Size(gctx, it.Model)
			if err != nil {
				return fmt.Errorf("size item %q: %w", it.ID, err)
			}
			sizes[i] = size
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sizes, nil
}

// computeTransition plans cs against base, sizes what needs sizing and
// builds the next snapshot. It never mutates base.
func computeTransition(ctx context.Context, base *ir.Snapshot, cs ir.Changeset, userInfo ir.UserInfo, pre map[ir.ItemID]presized, workers int) (*ir.Snapshot, *ir.AppliedChanges, error) {
	plan, err := ir.PlanChangeset(base, base.Configuration(), cs)
	if err != nil {
		return nil, nil, fmt.Errorf("plan against version %d: %w", base.Version(), err)
	}
	sizes, err := sizeItems(ctx, plan, pre, workers)
	if err != nil {
		return nil, nil, err
	}
	next, changes := plan.Build(base, sizes, userInfo)
	return next, changes, nil
}

// Transition computes the snapshot that results from applying cs to base.
// It is the same computation the engine runs for every queued changeset,
// exposed for replay verification and tests.
//
// workers limits sizing parallelism; values below 1 mean GOMAXPROCS.
func Transition(ctx context.Context, base *ir.Snapshot, cs ir.Changeset, userInfo ir.UserInfo, workers int) (*ir.Snapshot, *ir.AppliedChanges, error) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return computeTransition(ctx, base, cs, userInfo, nil, workers)
}
