package engine

import (
	"fmt"

	"github.com/calegray/scopedsl/internal/ast"
	"github.com/calegray/scopedsl/internal/cval"
)

// resolutionContext carries the per-call state of one top-level
// resolution: the acting entity, the environment snapshot, the registry,
// and the depth/cycle bookkeeping for the active path.
//
// Contexts are cheaply cloned on every descent rather than mutated in
// place. Sibling branches of a Union therefore see independent visited
// ledgers and may legitimately re-resolve the same scope; only re-entry
// along a single active path is a cycle. The clone-per-descent shape
// makes that stack-discipline invariant structural - there is nothing to
// pop, and nothing shared to synchronize.
type resolutionContext struct {
	actorID  string
	env      cval.Object
	registry ast.Registry
	traceID  string
	trace    *Trace

	depth   int
	visited map[string]struct{}
	chain   []string
}

// onPath reports whether key is already being resolved on this path.
// Checked before, not after, descending.
func (rc *resolutionContext) onPath(key string) bool {
	_, ok := rc.visited[key]
	return ok
}

// descend returns the context for resolving a child node: depth
// incremented, key added to a copied visited ledger and chain.
func (rc *resolutionContext) descend(key string) *resolutionContext {
	visited := make(map[string]struct{}, len(rc.visited)+1)
	for k := range rc.visited {
		visited[k] = struct{}{}
	}
	visited[key] = struct{}{}

	chain := make([]string, 0, len(rc.chain)+1)
	chain = append(chain, rc.chain...)
	chain = append(chain, key)

	return &resolutionContext{
		actorID:  rc.actorID,
		env:      rc.env,
		registry: rc.registry,
		traceID:  rc.traceID,
		trace:    rc.trace,
		depth:    rc.depth + 1,
		visited:  visited,
		chain:    chain,
	}
}

// cycleKey computes the identity used to detect re-entrant resolution.
//
// Scope references key by scope identifier: the same scope re-entered
// anywhere on one path is a cycle regardless of which referencing node
// got there. Every other kind keys by node identity - within a
// well-formed tree a node appears on a path at most once, so these keys
// only fire for malformed graphs that alias a node into its own descent.
func cycleKey(node ast.Node) string {
	if ref, ok := node.(*ast.ScopeReference); ok {
		return "scope:" + ref.ScopeID
	}
	return fmt.Sprintf("%s:%p", kindName(node), node)
}

// kindName names a node kind for keys, traces, and log lines.
func kindName(node ast.Node) string {
	switch node.(type) {
	case *ast.Source:
		return "source"
	case *ast.Step:
		return "step"
	case *ast.Filter:
		return "filter"
	case *ast.Union:
		return "union"
	case *ast.ArrayIteration:
		return "flatten"
	case *ast.ScopeReference:
		return "reference"
	default:
		return "unknown"
	}
}
