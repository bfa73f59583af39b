package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/calegray/scopedsl/internal/ast"
)

// CompileString compiles scope definitions from CUE source text.
// Used mainly by tests; file-based callers want CompileFiles.
func CompileString(src string) (ast.Registry, error) {
	ctx := cuecontext.New()
	return Compile(ctx.CompileString(src))
}

// CompileFiles compiles scope definitions from one or more CUE files,
// unifying them into a single value so scopes may be split across files.
// Duplicate scope identifiers across files fail to unify.
func CompileFiles(paths ...string) (ast.Registry, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scope files given")
	}

	ctx := cuecontext.New()
	var unified cue.Value
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read scope file: %w", err)
		}
		v := ctx.CompileBytes(data, cue.Filename(path))
		if err := v.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		if i == 0 {
			unified = v
		} else {
			unified = unified.Unify(v)
		}
	}
	return Compile(unified)
}

// FindScopeFiles walks a directory and returns all .cue file paths in
// walk order.
func FindScopeFiles(dir string) ([]string, error) {
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
