package harness

import (
	"fmt"
)

// EvaluateExpectations checks a result against exp and returns one
// message per unmet expectation. A nil exp always passes.
func EvaluateExpectations(r *Result, exp *Expect) []string {
	if exp == nil {
		return nil
	}
	var errs []string

	if exp.Items != nil {
		errs = append(errs, checkItems(r, exp.Items)...)
	}
	if exp.Version != nil && r.Final != nil && r.Final.Version() != *exp.Version {
		errs = append(errs, fmt.Sprintf("version: expected %d, got %d", *exp.Version, r.Final.Version()))
	}
	if exp.Broadcasts != nil && len(r.Cycles) != *exp.Broadcasts {
		errs = append(errs, fmt.Sprintf("broadcasts: expected %d, got %d", *exp.Broadcasts, len(r.Cycles)))
	}
	if exp.Failures != nil && r.Failures() != *exp.Failures {
		errs = append(errs, fmt.Sprintf("failures: expected %d, got %d", *exp.Failures, r.Failures()))
	}
	return errs
}

// checkItems compares identities and models in order. Models are compared
// by their printed form, so 1 and "1" are equal.
func checkItems(r *Result, want []EntrySpec) []string {
	if r.Final == nil {
		return []string{"items: no final state"}
	}
	if r.Final.Len() != len(want) {
		return []string{fmt.Sprintf("items: expected %d items, got %d: %s", len(want), r.Final.Len(), RenderItems(r.Final))}
	}
	var errs []string
	for i, w := range want {
		got := r.Final.At(i)
		if string(got.ID) != w.ID {
			errs = append(errs, fmt.Sprintf("items[%d]: expected id %q, got %q", i, w.ID, got.ID))
			continue
		}
		if fmt.Sprint(got.Model) != fmt.Sprint(w.Model) {
			errs = append(errs, fmt.Sprintf("items[%d] (%s): expected model %v, got %v", i, w.ID, w.Model, got.Model))
		}
	}
	return errs
}
