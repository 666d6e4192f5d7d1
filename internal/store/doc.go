// Package store provides a SQLite-backed journal of engine transitions.
//
// The journal is append-only:
//   - Transitions: one row per broadcast cycle, committed or failed
//   - Checkpoints: full list contents at a version, the starting point
//     for replay
//
// # Critical Patterns
//
// Logical Time:
//   - Rows are keyed and ordered by seq, the engine's logical clock
//   - All reads use ORDER BY seq ASC; wall time is never stored
//
// Content Hashes:
//   - Every row carries the ir.SnapshotHash of the published snapshot
//     and the ir.ChangesetHash of its changeset
//   - Changesets are stored as canonical JSON (RFC 8785), so a row's bytes
//     are identical across runs
//
// Determinism Check:
//   - Verify rebuilds the earliest checkpoint, re-applies every committed
//     changeset with engine.Replay and compares hashes row by row
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
//   - user_version: ir.FormatVersion; Open rejects other formats
package store
