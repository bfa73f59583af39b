package engine

import (
	"log/slog"

	"github.com/calegray/scopedsl/internal/ast"
	"github.com/calegray/scopedsl/internal/cval"
)

// DefaultMaxDepth bounds resolution depth when no option overrides it.
// It guards against runaway scope-reference chains without constraining
// legitimate deep queries.
const DefaultMaxDepth = 64

// Engine resolves scope expressions against an entity-component graph.
//
// An Engine is immutable after construction and safe for concurrent use:
// each Resolve call builds its own resolution context and mutates only
// that, provided the Gateway tolerates concurrent reads. The engine
// itself never writes to the graph.
//
// INVARIANTS:
//   - A tree and its registry are never mutated during resolution
//   - Depth is monotonically non-decreasing along any call chain
//   - A cycle key never repeats on one active path (checked before
//     descending, stack-disciplined via context cloning)
//   - Identical inputs produce identical result sets
type Engine struct {
	gateway  Gateway
	log      *slog.Logger
	traceGen TraceIDGenerator
	maxDepth int

	// filterDiag enables per-entity debug logging of data anomalies
	// during filter evaluation. The anomaly outcome (predicate false)
	// is identical either way; this only affects diagnosability.
	filterDiag bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth sets the maximum resolution depth. A node's depth is
// its ancestor count, so the root resolves at depth 0. Defaults to
// DefaultMaxDepth.
func WithMaxDepth(maxDepth int) Option {
	return func(e *Engine) {
		e.maxDepth = maxDepth
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithTraceIDGenerator sets the trace identifier generator.
// Tests pass a FixedGenerator for deterministic log and golden output.
func WithTraceIDGenerator(gen TraceIDGenerator) Option {
	return func(e *Engine) {
		e.traceGen = gen
	}
}

// WithFilterDiagnostics enables debug logging of per-entity data
// anomalies during filter evaluation. Off by default: anomalies are the
// normal cost of heterogeneous component data.
func WithFilterDiagnostics() Option {
	return func(e *Engine) {
		e.filterDiag = true
	}
}

// New creates an Engine over the given entity gateway.
func New(gateway Gateway, opts ...Option) *Engine {
	e := &Engine{
		gateway:  gateway,
		log:      slog.Default(),
		traceGen: UUIDv7Generator{},
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxDepth returns the configured maximum resolution depth.
func (e *Engine) MaxDepth() int {
	return e.maxDepth
}

// Resolve evaluates a scope expression on behalf of actorID and returns
// the set of eligible entity identifiers.
//
// env is the read-only environment snapshot visible to filter predicates
// under the "env" prefix; nil means no ambient data. registry supplies
// the targets of ScopeReference nodes and is passed explicitly so tests
// can substitute registries per call.
//
// A returned error is always a *ResolutionError (structural defect,
// depth exceeded, or cycle) and means the whole resolution failed -
// there are no partial results. Per-entity data anomalies never surface
// here; the affected entity is skipped.
func (e *Engine) Resolve(root ast.Node, actorID string, env cval.Object, registry ast.Registry) (IDSet, error) {
	ids, _, err := e.resolve(root, actorID, env, registry, nil)
	return ids, err
}

// ResolveTraced is Resolve plus a per-node event trace, consumed by the
// conformance harness and the CLI's --trace flag.
func (e *Engine) ResolveTraced(root ast.Node, actorID string, env cval.Object, registry ast.Registry) (IDSet, *Trace, error) {
	trace := &Trace{}
	ids, traceID, err := e.resolve(root, actorID, env, registry, trace)
	trace.TraceID = traceID
	return ids, trace, err
}

// ResolveScope resolves a registered scope by identifier. An unknown
// identifier is a structural error, exactly as a dangling reference
// inside a tree would be.
func (e *Engine) ResolveScope(scopeID, actorID string, env cval.Object, registry ast.Registry) (IDSet, error) {
	root, ok := registry.Lookup(scopeID)
	if !ok {
		return nil, NewUnknownScopeError(scopeID, nil)
	}
	return e.Resolve(root, actorID, env, registry)
}

func (e *Engine) resolve(root ast.Node, actorID string, env cval.Object, registry ast.Registry, trace *Trace) (IDSet, string, error) {
	traceID := e.traceGen.Generate()

	rc := &resolutionContext{
		actorID:  actorID,
		env:      env,
		registry: registry,
		traceID:  traceID,
		trace:    trace,
		visited:  make(map[string]struct{}),
	}

	e.log.Debug("resolving scope",
		"trace_id", traceID,
		"actor", actorID,
	)

	rs, err := e.resolveNode(root, rc)
	if err != nil {
		e.log.Debug("scope resolution failed",
			"trace_id", traceID,
			"actor", actorID,
			"error", err,
		)
		return nil, traceID, err
	}

	ids := rs.ids()
	e.log.Debug("scope resolved",
		"trace_id", traceID,
		"actor", actorID,
		"targets", len(ids),
	)
	return ids, traceID, nil
}
