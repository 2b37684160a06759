package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/fetchview/internal/ir"
)

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Load error codes (E001-E099).
const (
	ErrCodeGeneric     = "E001" // generic/unknown error
	ErrCodeScanError   = "E002" // directory scan error
	ErrCodeNoFiles     = "E003" // no schema files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeDecode      = "E007" // YAML decode failed
	ErrCodeEmpty       = "E008" // schema declares no entities
)

// LoadResult contains a loaded graph and what it was loaded from.
type LoadResult struct {
	Graph     *ir.Graph
	FileCount int
}

// LoadError is an error raised while loading a schema, with a CUE
// position when one is available.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchema loads a graph from a CUE directory, a single .cue file or a
// .yaml/.yml file.
func LoadSchema(path string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema path: %v", err)}}
	}
	if info.IsDir() {
		return LoadSchemaDir(path, mode)
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: err.Error()}}
		}
		g, err := CompileYAML(data)
		if err != nil {
			return nil, []error{toLoadError(err, ErrCodeDecode)}
		}
		return finish(&LoadResult{Graph: g, FileCount: 1}, nil)
	case ".cue":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: err.Error()}}
		}
		v := cuecontext.New().CompileBytes(data)
		if err := v.Err(); err != nil {
			return nil, []error{toLoadError(formatCUEError(err), ErrCodeBuildFailed)}
		}
		entities, embeddables, errs := compileAll(v, mode == LoadModeFailFast)
		return finish(&LoadResult{Graph: ir.NewGraph(entities, embeddables), FileCount: 1}, loadErrors(errs))
	default:
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("unsupported schema file: %s", path)}}
	}
}

// LoadSchemaDir loads and compiles every CUE file in dir.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadSchemaDir(dir string, mode LoadMode) (*LoadResult, []error) {
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{toLoadError(formatCUEError(err), ErrCodeBuildFailed)}
	}

	entities, embeddables, errs := compileAll(value, mode == LoadModeFailFast)
	return finish(&LoadResult{Graph: ir.NewGraph(entities, embeddables), FileCount: len(cueFiles)}, loadErrors(errs))
}

func finish(res *LoadResult, errs []error) (*LoadResult, []error) {
	if len(errs) == 0 && len(res.Graph.Entities()) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeEmpty, Message: "no entities found in schema"})
	}
	return res, errs
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

func loadErrors(errs []error) []error {
	out := make([]error, 0, len(errs))
	for _, err := range errs {
		out = append(out, toLoadError(err, ErrCodeGeneric))
	}
	return out
}

// toLoadError keeps the position of a CompileError.
func toLoadError(err error, code string) *LoadError {
	var le *LoadError
	if errors.As(err, &le) {
		return le
	}
	var ce *CompileError
	if errors.As(err, &ce) {
		return &LoadError{Code: code, Message: ce.Field + ": " + ce.Message, Pos: ce.Pos}
	}
	return &LoadError{Code: code, Message: err.Error()}
}
