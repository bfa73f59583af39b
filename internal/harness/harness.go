// Package harness provides a conformance testing framework for the
// scope resolution engine.
//
// A scenario binds together a world fixture, CUE scope content, an
// acting entity, and an expected outcome. The harness compiles the
// content, resolves the named scope through the real engine, and checks
// the result against the expectation. Traced runs can additionally be
// compared against golden trace files, which serve as the source of
// truth for node-by-node resolution behavior.
//
// Resolution is fully deterministic, so scenarios need no retries,
// clocks, or tolerance windows: the same scenario file produces the
// same target set and the same trace every run. The only seam is the
// trace identifier, which the harness pins to "trace-{scenario name}".
package harness

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/calegray/scopedsl/internal/compiler"
	"github.com/calegray/scopedsl/internal/cval"
	"github.com/calegray/scopedsl/internal/engine"
	"github.com/calegray/scopedsl/internal/world"
)

// Result holds the outcome of one scenario execution.
type Result struct {
	// IDs is the resolved target set in lexical order. Nil when the
	// resolution failed.
	IDs []string

	// Trace is the per-node event log of the resolution. Populated even
	// for failed resolutions, up to the point of failure.
	Trace *engine.Trace

	// ResolutionErr is the engine's error, if the resolution failed.
	ResolutionErr error

	// Failures lists expectation mismatches. Empty means the scenario
	// passed.
	Failures []string
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// Run executes a scenario and evaluates its expectations.
//
// A returned error means the scenario could not be executed at all (a
// missing fixture, scope content that fails to compile). Expectation
// mismatches are not errors; they land in Result.Failures.
func Run(scenario *Scenario) (*Result, error) {
	w, err := world.LoadFile(scenario.World)
	if err != nil {
		return nil, fmt.Errorf("failed to load world: %w", err)
	}

	registry, err := compiler.CompileFiles(scenario.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile scopes: %w", err)
	}

	env, err := envValue(scenario.Env)
	if err != nil {
		return nil, fmt.Errorf("invalid env: %w", err)
	}

	opts := []engine.Option{
		// Suppress logs in scenario runs
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithTraceIDGenerator(engine.NewFixedGenerator("trace-" + scenario.Name)),
	}
	if scenario.MaxDepth > 0 {
		opts = append(opts, engine.WithMaxDepth(scenario.MaxDepth))
	}
	eng := engine.New(w, opts...)

	root, ok := registry.Lookup(scenario.Resolve)
	if !ok {
		return nil, fmt.Errorf("scenario resolves unknown scope %q", scenario.Resolve)
	}

	result := &Result{}
	ids, trace, err := eng.ResolveTraced(root, scenario.Actor, env, registry)
	result.Trace = trace
	if err != nil {
		result.ResolutionErr = err
	} else {
		result.IDs = ids.Sorted()
	}

	evaluateExpectations(scenario, result)
	return result, nil
}

// evaluateExpectations compares the resolution outcome to the
// scenario's expect clause, recording mismatches on the result.
func evaluateExpectations(scenario *Scenario, result *Result) {
	expect := scenario.Expect

	if expect.Error != "" {
		if result.ResolutionErr == nil {
			result.Failures = append(result.Failures,
				fmt.Sprintf("expected %s error, resolution succeeded with %v", expect.Error, result.IDs))
			return
		}
		if !errorMatches(expect.Error, result.ResolutionErr) {
			result.Failures = append(result.Failures,
				fmt.Sprintf("expected %s error, got: %v", expect.Error, result.ResolutionErr))
		}
		return
	}

	if result.ResolutionErr != nil {
		result.Failures = append(result.Failures,
			fmt.Sprintf("expected targets %v, resolution failed: %v", expect.IDs, result.ResolutionErr))
		return
	}

	want := append([]string{}, expect.IDs...)
	sort.Strings(want)
	if !equalStrings(want, result.IDs) {
		result.Failures = append(result.Failures,
			fmt.Sprintf("target mismatch: want %v, got %v", want, result.IDs))
	}
}

func errorMatches(category string, err error) bool {
	switch category {
	case ExpectStructural:
		return engine.IsStructuralError(err)
	case ExpectDepthExceeded:
		return engine.IsDepthError(err)
	case ExpectCycleDetected:
		return engine.IsCycleError(err)
	default:
		return false
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// envValue converts the scenario's env map to component data.
func envValue(env map[string]interface{}) (cval.Object, error) {
	if len(env) == 0 {
		return nil, nil
	}
	v, err := cval.FromGo(env)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(cval.Object)
	if !ok {
		return nil, fmt.Errorf("env must be an object, got %T", v)
	}
	return obj, nil
}
