package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/hostbridge/internal/harness"
	"github.com/roach88/hostbridge/internal/ir"
)

// OperationsField is the CUE field holding a batch.
const OperationsField = "operations"

// LoadError represents an error that occurred while loading a batch.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadBatch reads an operation batch.
//
// Supported sources:
//   - .json: a JSON array of descriptors
//   - .yaml/.yml: a YAML list; mapping key order is kept
//   - .cue, or a directory of CUE files: the value of the operations field
//
// The batch is returned as read; shape checks belong to the interpreter.
func LoadBatch(path string) (ir.Value, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("batch not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing batch: %v", err)}
	}
	if info.IsDir() {
		return loadCUEDir(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	switch ext := filepath.Ext(path); ext {
	case ".json":
		v, err := ir.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return v, nil
	case ".yaml", ".yml":
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("parsing %s: %v", path, err)}
		}
		v, err := harness.ValueFromYAML(&doc)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("%s: %v", path, err)}
		}
		return v, nil
	case ".cue":
		ctx := cuecontext.New()
		return operationsFromCUE(ctx.CompileBytes(data, cue.Filename(path)))
	default:
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("unsupported batch format %q", ext)}
	}
}

// loadCUEDir builds the CUE package in dir.
func loadCUEDir(dir string) (ir.Value, error) {
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, cueLoadError("loading CUE files", inst.Err)
	}
	return operationsFromCUE(ctx.BuildInstance(inst))
}

func operationsFromCUE(value cue.Value) (ir.Value, error) {
	if err := value.Err(); err != nil {
		return nil, cueLoadError("building CUE value", err)
	}

	ops := value.LookupPath(cue.ParsePath(OperationsField))
	if !ops.Exists() {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("no %s field", OperationsField)}
	}

	// MarshalJSON keeps field order and fails on non-concrete values
	data, err := ops.MarshalJSON()
	if err != nil {
		return nil, cueLoadError(OperationsField, err)
	}
	return ir.Parse(data)
}

func cueLoadError(context string, err error) *LoadError {
	le := &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("%s: %v", context, err)}
	if positions := cueerrors.Positions(err); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
