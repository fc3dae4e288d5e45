package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/token"

	"github.com/roach88/digisim/internal/circuit"
	"github.com/roach88/digisim/internal/compiler"
)

// Error codes for command-level failures
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE evaluation or schema check failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeDatabase    = "E008" // Run log could not be opened or queried
	ErrCodeStimulus    = "E009" // Stimulus rejected before the run
	ErrCodeCircuit     = "E010" // Circuit could not be built
)

// LoadError represents an error that occurred while loading a circuit.
type LoadError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Line returns the source line of the error, or 0.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// LoadCircuit compiles the circuit at path, a .cue file or a directory of
// them. Failures are returned as *LoadError carrying a CLI error code.
func LoadCircuit(path string) (*circuit.Spec, error) {
	spec, err := compiler.Load(path)
	if err == nil {
		return spec, nil
	}

	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		code := ErrCodeLoadFailed
		switch loadErr.Code {
		case compiler.ErrCodeNotFound:
			code = ErrCodeNotFound
		case compiler.ErrCodeNoFiles:
			code = ErrCodeNoFiles
		}
		return nil, &LoadError{Code: code, Message: loadErr.Message}
	}

	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return nil, &LoadError{
			Code:    ErrCodeBuildFailed,
			Field:   compileErr.Field,
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}

	return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// FindCUEFiles returns the .cue files directly under dir, or dir itself if
// it is a file.
func FindCUEFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	return filepath.Glob(filepath.Join(path, "*.cue"))
}
