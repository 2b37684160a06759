package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/fetchview/internal/compiler"
	"github.com/roach88/fetchview/internal/ir"
)

// loadGraph loads the schema at path and rejects it if it does not
// validate. Errors are already reported through f.
func loadGraph(f *OutputFormatter, path string) (*ir.Graph, error) {
	res, loadErrs := compiler.LoadSchema(path, compiler.LoadModeFailFast)
	if len(loadErrs) > 0 {
		code, msg := loadErrorCode(loadErrs[0])
		return nil, f.Fail(ExitCommandError, code, msg, nil)
	}
	f.VerboseLog("Loaded %d schema file(s) from %s", res.FileCount, path)

	if errs := compiler.ValidateGraph(res.Graph); len(errs) > 0 {
		return nil, outputValidationErrors(f, errs)
	}
	return res.Graph, nil
}

// loadErrorCode extracts the error code and message of a load error.
func loadErrorCode(err error) (string, string) {
	var le *compiler.LoadError
	if errors.As(err, &le) {
		return le.Code, le.Message
	}
	return compiler.ErrCodeGeneric, err.Error()
}

// resolveRoot returns the simple name of root, which may be qualified.
func resolveRoot(f *OutputFormatter, g *ir.Graph, root string) (string, error) {
	if root == "" {
		return "", f.Fail(ExitCommandError, ErrCodeConfig, "--root is required", nil)
	}
	e, ok := g.Entity(root)
	if !ok {
		return "", f.Fail(ExitCommandError, ErrCodeAnalyze, fmt.Sprintf("unknown root entity %q", root), nil)
	}
	return e.Name, nil
}
