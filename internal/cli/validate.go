package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/calegray/scopedsl/internal/compiler"
)

// ValidationResult holds validation results for JSON output.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Scopes []string `json:"scopes,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scopes-path>",
		Short: "Validate scope content without resolving",
		Long: `Compile CUE scope content and check it structurally.

Catches malformed nodes, unknown operators, and dangling scope
references before the content reaches a running engine.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, scopesPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	registry, err := loadScopes(scopesPath)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			_ = formatter.Error(ErrCodeNotFound, exitErr.Message, nil)
			return exitErr
		}
		// Compile errors are validation failures, not command errors.
		code := ErrCodeCompileFailed
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) {
			_ = formatter.Error(code, compileErr.Error(), nil)
		} else {
			_ = formatter.Error(code, err.Error(), nil)
		}
		return NewExitError(ExitFailure, "validation failed")
	}

	ids := registry.ScopeIDs()
	sort.Strings(ids)
	formatter.VerboseLog("Compiled %d scope(s) from %s", len(ids), scopesPath)

	if opts.Format == "json" {
		return formatter.SuccessJSON(ValidationResult{Valid: true, Scopes: ids})
	}
	fmt.Fprintf(formatter.Writer, "✓ %d scope(s) valid\n", len(ids))
	return nil
}
