// Package ir provides the list-state types shared by every listsync package.
//
// This package contains the data model only: snapshots, changesets, the
// batch planner that turns a changeset into an ordered item plan, and the
// applied-changes descriptor handed to listeners. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - A published Snapshot is never mutated. Fields are unexported and every
//     transition builds a new value.
//   - Item identity (ItemID) is independent of position and survives moves
//     and updates.
//   - Models are opaque but must be comparable Go values, because
//     identity-for-model lookups use them as keys.
//   - Versions are logical counters, never wall-clock timestamps.
package ir
