// Package testutil provides deterministic helpers for engine, adapter and
// harness tests: a sequential token source, a gated sizer that lets tests
// control the order in which transitions finish computing, a recording
// listener and a fake widget.
package testutil
