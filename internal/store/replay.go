package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/listsync/internal/engine"
	"github.com/roach88/listsync/internal/ir"
)

// Mismatch is a journal row whose recorded snapshot hash differs from the
// replayed one.
type Mismatch struct {
	Seq     int64
	Token   string
	Version uint64
	Want    string
	Got     string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("seq=%d token=%s version=%d: recorded %s, replayed %s",
		m.Seq, m.Token, m.Version, short(m.Want), short(m.Got))
}

func short(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// VerifyResult summarizes a determinism check.
type VerifyResult struct {
	// Checked counts committed rows that were replayed.
	Checked int
	// Skipped counts failed rows, which never changed the list.
	Skipped    int
	Mismatches []Mismatch
	// Final is the last replayed snapshot.
	Final *ir.Snapshot
}

// OK reports whether every replayed hash matched.
func (r VerifyResult) OK() bool {
	return len(r.Mismatches) == 0
}

// Rebuild restores the list stored in cp. Sizes are recomputed with the
// configuration newConfig returns for the recorded size range.
func Rebuild(ctx context.Context, cp Checkpoint, newConfig func(ir.SizeRange) *ir.Configuration) (*ir.Snapshot, error) {
	cfg := newConfig(cp.SizeRange)
	seeded, _, err := engine.Transition(ctx, ir.EmptySnapshot(cfg), ir.NewChangeset().WithReplaceAll(cp.Entries...), nil, 0)
	if err != nil {
		return nil, fmt.Errorf("rebuild checkpoint %d: %w", cp.Version, err)
	}
	snap, err := ir.NewSnapshot(cp.Version, seeded.Items(), cfg)
	if err != nil {
		return nil, fmt.Errorf("rebuild checkpoint %d: %w", cp.Version, err)
	}
	return snap, nil
}

// Verify replays the journal and compares every snapshot hash.
//
// It rebuilds the earliest checkpoint, re-applies every committed
// changeset after it in seq order with engine.Replay, and records a
// Mismatch for each row whose hash differs. The checkpoint itself is
// checked too, reported with seq 0. newConfig must return a configuration
// whose sizer matches the one used when the journal was written.
func (s *Store) Verify(ctx context.Context, newConfig func(ir.SizeRange) *ir.Configuration) (VerifyResult, error) {
	var res VerifyResult

	cp, err := s.EarliestCheckpoint(ctx)
	if err != nil {
		return res, fmt.Errorf("verify: %w", err)
	}
	base, err := Rebuild(ctx, cp, newConfig)
	if err != nil {
		return res, fmt.Errorf("verify: %w", err)
	}
	if got := ir.MustSnapshotHash(base); got != cp.SnapshotHash {
		res.Mismatches = append(res.Mismatches, Mismatch{Version: cp.Version, Want: cp.SnapshotHash, Got: got})
	}

	records, err := s.ReadTransitions(ctx)
	if err != nil {
		return res, fmt.Errorf("verify: %w", err)
	}

	var (
		committed  []Record
		changesets []ir.Changeset
	)
	for _, r := range records {
		if r.BaseVersion < cp.Version {
			continue
		}
		if r.Status != StatusCommitted {
			res.Skipped++
			continue
		}
		cs, err := r.DecodeChangeset(newConfig)
		if err != nil {
			return res, fmt.Errorf("verify seq %d: %w", r.Seq, err)
		}
		committed = append(committed, r)
		changesets = append(changesets, cs)
	}

	final, err := engine.Replay(ctx, base, changesets, func(i int, next *ir.Snapshot, _ *ir.AppliedChanges) error {
		r := committed[i]
		res.Checked++
		got, err := ir.SnapshotHash(next)
		if err != nil {
			return err
		}
		if got != r.SnapshotHash || next.Version() != r.Version {
			res.Mismatches = append(res.Mismatches, Mismatch{
				Seq:     r.Seq,
				Token:   r.Token,
				Version: r.Version,
				Want:    r.SnapshotHash,
				Got:     got,
			})
		}
		return nil
	})
	res.Final = final
	if err != nil {
		return res, fmt.Errorf("verify: %w", err)
	}
	return res, nil
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
