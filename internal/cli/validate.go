package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/digisim/internal/circuit"
	"github.com/roach88/digisim/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                       `json:"valid"`
	Circuit    string                     `json:"circuit,omitempty"`
	Nets       int                        `json:"nets"`
	Components int                        `json:"components"`
	Errors     []compiler.ValidationError `json:"errors,omitempty"`
	Warnings   []compiler.ValidationError `json:"warnings,omitempty"`
	Loops      []compiler.LoopWarning     `json:"loops,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <circuit>",
		Short: "Validate a circuit without simulating it",
		Long: `Validate a CUE circuit description without running it.

Performs syntax checking, schema validation, name and connectivity checks,
and builds the circuit against the component library so that pin names and
widths are checked. Feedback loops are reported: a loop made only of
zero-delay components is a warning, any other loop is informational.

Exit codes:
  0 - Circuit is valid (warnings allowed)
  1 - Circuit has errors
  2 - Command error (path not found, no CUE files, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if files, err := FindCUEFiles(path); err == nil {
		formatter.VerboseLog("Found %d CUE file(s) in %s", len(files), path)
	}

	spec, err := LoadCircuit(path)
	if err != nil {
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
		}
		// A description that fails its schema is invalid, not a command error.
		if loadErr.Code == ErrCodeBuildFailed {
			return outputValidationErrors(formatter, ValidationResult{
				Errors: []compiler.ValidationError{{
					Field:   loadErr.Field,
					Message: loadErr.Message,
					Code:    loadErr.Code,
					Line:    loadErr.Line(),
				}},
			})
		}
		return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
	}

	result := validateSpec(spec, formatter)
	if len(result.Errors) > 0 {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// validateSpec runs the structural checks and loop analysis of spec.
func validateSpec(spec *circuit.Spec, formatter *OutputFormatter) ValidationResult {
	formatter.VerboseLog("Validating circuit: %s", spec.Name)

	result := ValidationResult{
		Circuit:    spec.Name,
		Nets:       len(spec.Nets),
		Components: len(spec.Components),
	}
	for _, e := range compiler.Validate(spec) {
		if e.Warning {
			result.Warnings = append(result.Warnings, e)
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	if len(result.Errors) == 0 {
		formatter.VerboseLog("Analyzing feedback loops")
		result.Loops = compiler.AnalyzeLoops(spec)
	}
	result.Valid = len(result.Errors) == 0
	return result
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Circuit %s valid (%d nets, %d components)\n", result.Circuit, result.Nets, result.Components)
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "  warning %s %s: %s\n", warn.Code, warn.Field, warn.Message)
	}
	for _, loop := range result.Loops {
		fmt.Fprintf(w, "  %s: %s\n", loop.Level, loop.Message)
	}
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Load errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs the problems of an invalid circuit.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
