package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/digisim/internal/compiler"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult describes a compiled circuit.
type CompilationResult struct {
	Circuit    string          `json:"circuit"`
	Hash       string          `json:"hash"`
	Nets       int             `json:"nets"`
	Components int             `json:"components"`
	Spec       json.RawMessage `json:"spec"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <circuit>",
		Short: "Compile a CUE circuit to canonical JSON",
		Long: `Compile a CUE circuit description to canonical JSON.

The compiler parses the CUE files, validates them against the circuit
schema and the component library, and outputs the description as
canonical JSON together with its content hash. The same JSON is what
recorded runs store for replay.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	spec, err := LoadCircuit(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return outputCompileError(formatter, loadErr.Code, loadErr.Error(), nil)
		}
		return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil)
	}
	formatter.VerboseLog("Compiled circuit: %s", spec.Name)

	if errs := compiler.Validate(spec); compiler.HasErrors(errs) {
		for _, e := range errs {
			if !e.Warning {
				return outputCompileError(formatter, e.Code, e.Error(), errs)
			}
		}
	}

	data, err := spec.MarshalCanonical()
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil)
	}
	hash, err := spec.Hash()
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil)
	}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0644); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	result := CompilationResult{
		Circuit:    spec.Name,
		Hash:       hash,
		Nets:       len(spec.Nets),
		Components: len(spec.Components),
		Spec:       data,
	}
	return outputCompileSuccess(formatter, result, opts.Output)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %s: %d net(s), %d component(s)\n",
		result.Circuit, result.Nets, result.Components)
	fmt.Fprintf(formatter.Writer, "  hash %s\n", result.Hash)

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote canonical JSON to %s\n", outputFile)
	} else {
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintln(formatter.Writer, string(result.Spec))
	}

	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}
