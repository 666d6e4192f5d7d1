// Package harness runs list synchronization scenarios against a real
// engine and compares their traces with golden files.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: async_insert_then_sync_remove
//	description: "Insert is applied before the later sync removal"
//	width: 20
//	items:
//	  - { id: id1, model: A }
//	  - { id: id2, model: B }
//	steps:
//	  - apply:
//	      mode: async
//	      insert: [{ id: id3, model: C, index: 1 }]
//	  - apply:
//	      mode: sync
//	      remove: [id1]
//	expect:
//	  items:
//	    - { id: id3, model: C }
//	    - { id: id2, model: B }
//	  broadcasts: 2
//
// Each step holds exactly one action:
//
//   - apply: a changeset (insert, remove, remove_at, update, move,
//     replace_all, reload_all)
//   - reload: re-size every item
//   - configure: replace the configuration with a new max width
//   - fail_model: make the sizer fail for one model from now on
//
// apply, reload and configure take a mode (async by default). A step may
// name the error code it expects with expect_error.
//
// Scenarios are checked against an embedded CUE schema before they run
// (see ValidateScenario).
//
// # Deterministic Execution
//
// The runner uses sequential transition tokens (t1, t2, ...) and a gated
// sizer. Sizing is held while async steps are submitted and released at
// the next sync step or at the end, so async work is always computed
// concurrently and committed strictly in submission order. The resulting
// trace is identical across runs and is compared with
// testdata/golden/<name>.golden.
package harness
