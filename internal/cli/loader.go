package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/calegray/scopedsl/internal/ast"
	"github.com/calegray/scopedsl/internal/compiler"
)

// loadScopes compiles scope content from a path that is either a single
// .cue file or a directory of .cue files.
func loadScopes(path string) (ast.Registry, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("scope path not found: %s", path))
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "error accessing scope path", err)
	}

	var files []string
	if info.IsDir() {
		files, err = compiler.FindScopeFiles(path)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "error scanning scope directory", err)
		}
		if len(files) == 0 {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("no CUE files found in %s", path))
		}
	} else {
		if filepath.Ext(path) != ".cue" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("not a CUE file: %s", path))
		}
		files = []string{path}
	}

	registry, err := compiler.CompileFiles(files...)
	if err != nil {
		return nil, err
	}
	return registry, nil
}
