package store

import (
	"context"
	"fmt"

	"github.com/roach88/listsync/internal/ir"
)

// WriteRecord inserts a journal row.
// Uses ON CONFLICT(seq) DO NOTHING for idempotency - a row already written
// for the same seq is silently kept.
func (s *Store) WriteRecord(ctx context.Context, r Record) error {
	changesJSON, err := marshalChanges(r.Changes)
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if r.EngineVersion == "" {
		r.EngineVersion = ir.EngineVersion
	}
	if r.FormatVersion == "" {
		r.FormatVersion = ir.FormatVersion
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transitions
		(seq, token, mode, status, base_version, version, changeset, changeset_hash,
		 changes, snapshot_hash, error, engine_version, format_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		r.Seq,
		r.Token,
		r.Mode.String(),
		string(r.Status),
		int64(r.BaseVersion),
		int64(r.Version),
		r.Changeset,
		r.ChangesetHash,
		changesJSON,
		r.SnapshotHash,
		r.Error,
		r.EngineVersion,
		r.FormatVersion,
	)
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// WriteCheckpoint stores the full contents of snap.
// Uses ON CONFLICT(version) DO NOTHING for idempotency.
func (s *Store) WriteCheckpoint(ctx context.Context, snap *ir.Snapshot) error {
	items, err := marshalItems(snap)
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	var r ir.SizeRange
	if cfg := snap.Configuration(); cfg != nil {
		r = cfg.SizeRange
	}
	sizeRange, err := marshalSizeRange(r)
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	hash, err := ir.SnapshotHash(snap)
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (version, items, size_range, snapshot_hash)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(version) DO NOTHING
	`, int64(snap.Version()), items, sizeRange, hash)
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// NewRecord builds the journal row for one broadcast cycle. cycleErr is
// the error reported by TransitionDidFail, or nil.
func NewRecord(prev, next *ir.Snapshot, changes *ir.AppliedChanges, cycleErr error) (Record, error) {
	r := Record{
		BaseVersion: prev.Version(),
		Version:     next.Version(),
		Status:      StatusCommitted,
		Changes:     changesOf(changes),
	}
	if changes != nil {
		r.Seq = changes.Seq
		r.Token = changes.Token
		r.Mode = changes.Mode
		cs, err := ir.EncodeChangeset(changes.Changeset)
		if err != nil {
			return Record{}, err
		}
		r.Changeset = string(cs)
		r.ChangesetHash, err = ir.ChangesetHash(changes.Changeset)
		if err != nil {
			return Record{}, err
		}
	}
	if cycleErr != nil {
		r.Status = StatusFailed
		r.Error = cycleErr.Error()
	}
	hash, err := ir.SnapshotHash(next)
	if err != nil {
		return Record{}, err
	}
	r.SnapshotHash = hash
	return r, nil
}
