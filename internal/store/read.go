package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/listsync/internal/ir"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

const recordColumns = `seq, token, mode, status, base_version, version, changeset,
	changeset_hash, changes, snapshot_hash, error, engine_version, format_version`

// ReadTransitions returns every journal row in seq order.
// Returns an empty slice (not nil) if the journal is empty.
func (s *Store) ReadTransitions(ctx context.Context) ([]Record, error) {
	return s.queryRecords(ctx, `SELECT `+recordColumns+` FROM transitions ORDER BY seq ASC`)
}

// ReadTransitionsSince returns rows with seq > after, in seq order.
func (s *Store) ReadTransitionsSince(ctx context.Context, after int64) ([]Record, error) {
	return s.queryRecords(ctx, `SELECT `+recordColumns+` FROM transitions WHERE seq > ? ORDER BY seq ASC`, after)
}

// ReadFailures returns failed transitions in seq order.
func (s *Store) ReadFailures(ctx context.Context) ([]Record, error) {
	return s.queryRecords(ctx, `SELECT `+recordColumns+` FROM transitions WHERE status = ? ORDER BY seq ASC`, string(StatusFailed))
}

// ReadTransition returns the row for token, or ErrNotFound.
func (s *Store) ReadTransition(ctx context.Context, token string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM transitions WHERE token = ?`, token)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("transition %q: %w", token, ErrNotFound)
	}
	return r, err
}

// LastSeq returns the highest journaled seq, or 0 for an empty journal.
// Seed engine.NewClockAt with it to continue numbering.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM transitions`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		r           Record
		mode        string
		status      string
		baseVersion int64
		version     int64
		changes     string
	)
	err := row.Scan(
		&r.Seq,
		&r.Token,
		&mode,
		&status,
		&baseVersion,
		&version,
		&r.Changeset,
		&r.ChangesetHash,
		&changes,
		&r.SnapshotHash,
		&r.Error,
		&r.EngineVersion,
		&r.FormatVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan transition: %w", err)
	}

	r.Mode, err = ir.ParseUpdateMode(mode)
	if err != nil {
		return Record{}, fmt.Errorf("scan transition %d: %w", r.Seq, err)
	}
	r.Status = Status(status)
	r.BaseVersion = uint64(baseVersion)
	r.Version = uint64(version)
	r.Changes, err = unmarshalChanges(changes)
	if err != nil {
		return Record{}, fmt.Errorf("scan transition %d: %w", r.Seq, err)
	}
	return r, nil
}

// Checkpoint is a stored list snapshot.
type Checkpoint struct {
	Version      uint64
	Entries      []ir.Entry
	SizeRange    ir.SizeRange
	SnapshotHash string
}

// ReadCheckpoint returns the checkpoint at version, or ErrNotFound.
func (s *Store) ReadCheckpoint(ctx context.Context, version uint64) (Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT version, items, size_range, snapshot_hash
		FROM checkpoints WHERE version = ?
	`, int64(version))
	return scanCheckpoint(row)
}

// EarliestCheckpoint returns the checkpoint with the lowest version, or
// ErrNotFound.
func (s *Store) EarliestCheckpoint(ctx context.Context) (Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT version, items, size_range, snapshot_hash
		FROM checkpoints ORDER BY version ASC LIMIT 1
	`)
	return scanCheckpoint(row)
}

func scanCheckpoint(row scanner) (Checkpoint, error) {
	var (
		cp        Checkpoint
		version   int64
		items     string
		sizeRange string
	)
	if err := row.Scan(&version, &items, &sizeRange, &cp.SnapshotHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Checkpoint{}, fmt.Errorf("checkpoint: %w", ErrNotFound)
		}
		return Checkpoint{}, fmt.Errorf("scan checkpoint: %w", err)
	}
	cp.Version = uint64(version)

	var err error
	if cp.Entries, err = unmarshalItems(items); err != nil {
		return Checkpoint{}, err
	}
	if cp.SizeRange, err = unmarshalSizeRange(sizeRange); err != nil {
		return Checkpoint{}, err
	}
	return cp, nil
}
