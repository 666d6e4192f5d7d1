// Package tui is a Bubble Tea front end for the listsync engine.
//
// ListView implements adapter.Widget over rendered text rows and
// ResizeAnimator implements adapter.Bridge by interpolating the list's
// frame height on program ticks. Model wires an engine, an adapter, the
// widget and a lipgloss text sizer into an interactive demo: every key
// press becomes an async changeset and every committed transition redraws
// through the adapter's batch calls.
package tui
