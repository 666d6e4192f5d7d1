package harness

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// SchemaError lists every schema violation found in a scenario document.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "scenario does not match schema:\n  " + strings.Join(e.Problems, "\n  ")
}

// ValidateScenario checks a YAML scenario document against the embedded
// CUE schema. Unknown fields, wrong types and out-of-range values are all
// reported in one *SchemaError.
func ValidateScenario(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc == nil {
		return &SchemaError{Problems: []string{"empty document"}}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))

	v := ctx.Encode(doc)
	if err := v.Err(); err != nil {
		return fmt.Errorf("encode scenario: %w", err)
	}

	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		var problems []string
		for _, e := range cueerrors.Errors(err) {
			problems = append(problems, strings.TrimSpace(cueerrors.Details(e, nil)))
		}
		if len(problems) == 0 {
			problems = []string{err.Error()}
		}
		return &SchemaError{Problems: problems}
	}
	return nil
}
