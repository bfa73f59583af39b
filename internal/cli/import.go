package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calegray/scopedsl/internal/store"
	"github.com/calegray/scopedsl/internal/world"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	WorldPath string
	DBPath    string
}

// NewImportCommand creates the import command, which seeds a SQLite
// snapshot from a YAML world fixture.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:           "import",
		Short:         "Seed a SQLite snapshot from a YAML world fixture",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.WorldPath, "world", "", "path to YAML world fixture")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to SQLite snapshot to create or update")
	_ = cmd.MarkFlagRequired("world")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runImport(rootOpts *RootOptions, opts *ImportOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	w, err := world.LoadFile(opts.WorldPath)
	if err != nil {
		_ = formatter.Error(ErrCodeWorldFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load world", err)
	}

	s, err := store.Open(opts.DBPath, store.WithLogger(newLogger(cmd, rootOpts)))
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open snapshot", err)
	}
	defer s.Close()

	if err := s.ImportWorld(context.Background(), w); err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "import failed", err)
	}

	formatter.VerboseLog("Imported %d entities from %s", w.Len(), opts.WorldPath)
	if rootOpts.Format == "json" {
		return formatter.SuccessJSON(map[string]any{
			"entities": w.Len(),
			"db":       opts.DBPath,
		})
	}
	fmt.Fprintf(formatter.Writer, "✓ imported %d entities into %s\n", w.Len(), opts.DBPath)
	return nil
}
