package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/listsync/internal/harness"
)

// FileValidation is the validation outcome of one scenario file.
type FileValidation struct {
	File     string   `json:"file"`
	Name     string   `json:"name,omitempty"`
	Valid    bool     `json:"valid"`
	Code     string   `json:"code,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario|dir>...",
		Short: "Check scenario files without running them",
		Long: `Check scenario files against the scenario schema.

Each file is validated against the embedded CUE schema, decoded with
unknown fields rejected, and checked for structural problems such as
duplicate item ids or steps with more than one action. Directories are
expanded to the scenario files they contain.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("path not found: %s", arg))
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := findScenarioFiles(arg, "")
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list scenarios", err)
		}
		files = append(files, found...)
	}

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(files))}
	for _, file := range files {
		fv := validateFile(file)
		f.VerboseLog("validated %s: valid=%t", file, fv.Valid)
		if !fv.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, fv)
	}

	if f.isJSON() {
		if err := f.Result(result.Valid, result); err != nil {
			return err
		}
	} else {
		printValidation(cmd, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

func validateFile(file string) FileValidation {
	fv := FileValidation{File: file}

	data, err := os.ReadFile(file)
	if err != nil {
		fv.Code = ErrCodeLoad
		fv.Problems = []string{err.Error()}
		return fv
	}

	sc, err := harness.ParseScenario(data)
	if err != nil {
		var se *harness.SchemaError
		if errors.As(err, &se) {
			fv.Code = ErrCodeSchema
			fv.Problems = se.Problems
		} else {
			fv.Code = ErrCodeScenario
			fv.Problems = []string{err.Error()}
		}
		return fv
	}

	fv.Name = sc.Name
	fv.Valid = true
	return fv
}

func printValidation(cmd *cobra.Command, result ValidationResult) {
	w := cmd.OutOrStdout()
	if len(result.Files) == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}
	for _, fv := range result.Files {
		if fv.Valid {
			fmt.Fprintf(w, "✓ %s (%s)\n", fv.File, fv.Name)
			continue
		}
		fmt.Fprintf(w, "✗ %s [%s]\n", fv.File, fv.Code)
		for _, p := range fv.Problems {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
}
