package harness

import (
	"github.com/roach88/listsync/internal/ir"
)

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Index int
	Kind  string
	Mode  ir.UpdateMode
	// Summary describes the step's arguments.
	Summary string
	// Code is the error code returned by the step, or "".
	Code string
	Err  error
}

// CycleResult is one broadcast cycle observed by the runner.
type CycleResult struct {
	Seq         int64
	Token       string
	Mode        ir.UpdateMode
	PrevVersion uint64
	Version     uint64
	Changes     string
	// Err is set for failed transitions.
	Err   error
	Items string
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation held.
	Pass bool

	// Steps holds one entry per scenario step, in order.
	Steps []StepResult

	// Cycles holds every broadcast cycle in commit order.
	Cycles []CycleResult

	// Final is the last published snapshot.
	Final *ir.Snapshot

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Failures counts failed cycles.
func (r *Result) Failures() int {
	n := 0
	for _, c := range r.Cycles {
		if c.Err != nil {
			n++
		}
	}
	return n
}
