package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calegray/scopedsl/internal/cval"
	"github.com/calegray/scopedsl/internal/engine"
	"github.com/calegray/scopedsl/internal/store"
	"github.com/calegray/scopedsl/internal/world"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	ScopesPath  string
	WorldPath   string
	DBPath      string
	Actor       string
	Env         []string // key=value pairs
	Trace       bool
	MaxDepth    int
	Diagnostics bool
}

// ResolveResult is the JSON payload of a successful resolution.
type ResolveResult struct {
	Scope    string        `json:"scope"`
	Actor    string        `json:"actor"`
	Resolved []string      `json:"resolved"`
	Trace    *engine.Trace `json:"trace,omitempty"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve <scope-id>",
		Short: "Resolve a scope to its target entities",
		Long: `Resolve a registered scope on behalf of an acting entity.

The world snapshot comes from either a YAML fixture (--world) or a
SQLite snapshot (--db). Targets print one per line in lexical order;
--trace additionally reports the per-node resolution events.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ScopesPath, "scopes", "", "path to CUE scope content (file or directory)")
	cmd.Flags().StringVar(&opts.WorldPath, "world", "", "path to YAML world fixture")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to SQLite world snapshot")
	cmd.Flags().StringVar(&opts.Actor, "actor", "", "acting entity identifier")
	cmd.Flags().StringArrayVar(&opts.Env, "env", nil, "environment entry as key=value (repeatable)")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "include per-node resolution events")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "override maximum resolution depth")
	cmd.Flags().BoolVar(&opts.Diagnostics, "diagnostics", false, "log per-entity filter anomalies (needs --verbose)")
	_ = cmd.MarkFlagRequired("scopes")
	_ = cmd.MarkFlagRequired("actor")

	return cmd
}

func runResolve(rootOpts *RootOptions, opts *ResolveOptions, scopeID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	if (opts.WorldPath == "") == (opts.DBPath == "") {
		msg := "exactly one of --world or --db is required"
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	registry, err := loadScopes(opts.ScopesPath)
	if err != nil {
		_ = formatter.Error(ErrCodeCompileFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scopes", err)
	}

	gateway, cleanup, err := openGateway(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeWorldFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open world snapshot", err)
	}
	defer cleanup()

	env, err := parseEnv(opts.Env)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid --env", err)
	}

	engOpts := []engine.Option{engine.WithLogger(newLogger(cmd, rootOpts))}
	if opts.MaxDepth > 0 {
		engOpts = append(engOpts, engine.WithMaxDepth(opts.MaxDepth))
	}
	if opts.Diagnostics {
		engOpts = append(engOpts, engine.WithFilterDiagnostics())
	}
	eng := engine.New(gateway, engOpts...)

	root, ok := registry.Lookup(scopeID)
	if !ok {
		msg := fmt.Sprintf("unknown scope %q", scopeID)
		_ = formatter.Error(ErrCodeResolution, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	result := ResolveResult{Scope: scopeID, Actor: opts.Actor}
	if opts.Trace {
		ids, trace, err := eng.ResolveTraced(root, opts.Actor, env, registry)
		if err != nil {
			return resolveFailed(formatter, err)
		}
		result.Resolved = ids.Sorted()
		result.Trace = trace
	} else {
		ids, err := eng.Resolve(root, opts.Actor, env, registry)
		if err != nil {
			return resolveFailed(formatter, err)
		}
		result.Resolved = ids.Sorted()
	}

	if rootOpts.Format == "json" {
		return formatter.SuccessJSON(result)
	}

	for _, id := range result.Resolved {
		fmt.Fprintln(formatter.Writer, id)
	}
	if result.Trace != nil {
		fmt.Fprintf(formatter.Writer, "\ntrace %s\n", result.Trace.TraceID)
		for _, ev := range result.Trace.Events {
			if ev.Detail != "" {
				fmt.Fprintf(formatter.Writer, "  depth=%d %s(%s) -> %d\n", ev.Depth, ev.Kind, ev.Detail, ev.Size)
			} else {
				fmt.Fprintf(formatter.Writer, "  depth=%d %s -> %d\n", ev.Depth, ev.Kind, ev.Size)
			}
		}
	}
	return nil
}

// resolveFailed reports a resolution error and maps it to exit code 1.
func resolveFailed(formatter *OutputFormatter, err error) error {
	_ = formatter.Error(ErrCodeResolution, err.Error(), nil)
	return WrapExitError(ExitFailure, "resolution failed", err)
}

// openGateway opens the configured world snapshot and returns it with a
// cleanup function.
func openGateway(opts *ResolveOptions) (engine.Gateway, func(), error) {
	if opts.WorldPath != "" {
		w, err := world.LoadFile(opts.WorldPath)
		if err != nil {
			return nil, nil, err
		}
		return w, func() {}, nil
	}

	s, err := store.Open(opts.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { s.Close() }, nil
}

// parseEnv converts repeated key=value flags into the environment
// snapshot. Values are strings; richer environments belong in scenario
// files.
func parseEnv(pairs []string) (cval.Object, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := cval.Object{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed env entry %q: want key=value", pair)
		}
		env[key] = cval.String(value)
	}
	return env, nil
}
