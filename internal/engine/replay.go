package engine

import (
	"context"
	"fmt"

	"github.com/roach88/listsync/internal/ir"
)

// Replay applies changesets to base in order using the engine's transition
// computation, calling visit after each step. It stops at the first
// computation or visit error.
//
// Replay is deterministic: the same base and changesets always produce the
// same snapshots, which is what journal verification relies on.
func Replay(ctx context.Context, base *ir.Snapshot, changesets []ir.Changeset, visit func(i int, next *ir.Snapshot, changes *ir.AppliedChanges) error) (*ir.Snapshot, error) {
	cur := base
	for i, cs := range changesets {
		if err := ctx.Err(); err != nil {
			return cur, err
		}
		next, changes, err := Transition(ctx, cur, cs, nil, 0)
		if err != nil {
			return cur, fmt.Errorf("replay step %d: %w", i, err)
		}
		if visit != nil {
			if err := visit(i, next, changes); err != nil {
				return next, err
			}
		}
		cur = next
	}
	return cur, nil
}
