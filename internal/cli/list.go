package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list <scopes-path>",
		Short:         "List registered scope identifiers",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runList(opts *RootOptions, scopesPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	registry, err := loadScopes(scopesPath)
	if err != nil {
		_ = formatter.Error(ErrCodeCompileFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scopes", err)
	}

	ids := registry.ScopeIDs()
	sort.Strings(ids)

	if opts.Format == "json" {
		return formatter.SuccessJSON(map[string]any{"scopes": ids})
	}
	for _, id := range ids {
		fmt.Fprintln(formatter.Writer, id)
	}
	return nil
}
