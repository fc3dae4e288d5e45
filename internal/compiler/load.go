package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/digisim/internal/circuit"
)

// Load error codes.
const (
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeNoFiles    = "NO_FILES"
	ErrCodeLoadFailed = "LOAD_FAILED"
)

// LoadError is a failure to read a description before compilation.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CompileString compiles a description held in memory. filename is used in
// error positions.
func CompileString(src, filename string) (*circuit.Spec, error) {
	ctx := cuecontext.New()
	return CompileCircuit(ctx.CompileString(src, cue.Filename(filename)))
}

// CompileFile compiles a single .cue file.
func CompileFile(path string) (*circuit.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("circuit file not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	ctx := cuecontext.New()
	return CompileCircuit(ctx.CompileBytes(data, cue.Filename(path)))
}

// LoadDir compiles the CUE files of a directory as one description, so a
// circuit may be split across files.
func LoadDir(dir string) (*circuit.Spec, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileCircuit(value)
}

// Load compiles path, which may be a .cue file or a directory.
func Load(path string) (*circuit.Spec, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("circuit not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return CompileFile(path)
}
