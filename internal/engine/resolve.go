package engine

import (
	"strings"

	"github.com/calegray/scopedsl/internal/ast"
	"github.com/calegray/scopedsl/internal/cval"
)

// resolveNode is the guarded recursion boundary every descent passes
// through, including the implicit parent of Step/Filter/ArrayIteration
// and the target of a ScopeReference. The guards live here, not inside
// individual resolvers, so every node kind is protected uniformly:
//
//  1. depth check - a node deeper than maxDepth aborts the resolution
//  2. cycle check - a cycle key already on the active path aborts,
//     checked before descending
//  3. dispatch to the resolver for the node's kind
func (e *Engine) resolveNode(node ast.Node, rc *resolutionContext) (*resultSet, error) {
	if node == nil {
		return nil, &ResolutionError{
			Code:    ErrCodeStructural,
			Message: "nil scope node",
			Chain:   rc.chain,
		}
	}

	if rc.depth > e.maxDepth {
		return nil, NewDepthError(rc.depth, e.maxDepth, rc.chain)
	}

	key := cycleKey(node)
	if rc.onPath(key) {
		return nil, NewCycleError(key, rc.chain)
	}

	rs, err := e.dispatch(node, rc.descend(key))
	if err != nil {
		return nil, err
	}

	rc.trace.record(node, rc.depth, rs.size())
	return rs, nil
}

// dispatch routes a node to the resolver for its kind. The ast.Node
// union is sealed, so the switch is exhaustive for every kind known at
// compile time; the default branch only fires for a nil concrete value
// smuggled inside a non-nil interface, which is a programming error, not
// a data condition.
func (e *Engine) dispatch(node ast.Node, rc *resolutionContext) (*resultSet, error) {
	switch n := node.(type) {
	case *ast.Source:
		return e.resolveSource(n, rc)
	case *ast.Step:
		return e.resolveStep(n, rc)
	case *ast.Filter:
		return e.resolveFilter(n, rc)
	case *ast.Union:
		return e.resolveUnion(n, rc)
	case *ast.ArrayIteration:
		return e.resolveIteration(n, rc)
	case *ast.ScopeReference:
		return e.resolveReference(n, rc)
	default:
		return nil, &ResolutionError{
			Code:    ErrCodeStructural,
			Message: "no resolver matches node kind",
			Chain:   rc.chain,
		}
	}
}

// resolveStep reads the node's field from each member of the parent
// result. Absent, null, or unreadable fields skip that member - partial
// component data across a large entity population is expected, not
// exceptional. Array values are surfaced raw; flattening belongs to
// ArrayIteration.
func (e *Engine) resolveStep(n *ast.Step, rc *resolutionContext) (*resultSet, error) {
	parent, err := e.resolveNode(n.Parent, rc)
	if err != nil {
		return nil, err
	}

	out := newResultSet()
	for _, member := range parent.members() {
		v, ok := e.stepValue(member, n.Field)
		if !ok {
			continue
		}
		if err := out.add(v); err != nil {
			e.log.Debug("skipping unhashable step value",
				"trace_id", rc.traceID,
				"field", n.Field,
				"error", err,
			)
		}
	}
	return out, nil
}

// stepValue reads a dotted field from one parent member. For an entity
// identifier the first path segment names a component type and the rest
// descend into its data; for a structured member the whole path descends
// into the value itself.
func (e *Engine) stepValue(member cval.Value, field string) (cval.Value, bool) {
	segments := strings.Split(field, ".")

	switch m := member.(type) {
	case cval.String:
		comp, ok := e.gateway.Component(string(m), segments[0])
		if !ok {
			return nil, false
		}
		return descendPath(comp, segments[1:])
	case cval.Object:
		return descendPath(m, segments)
	default:
		return nil, false
	}
}

// descendPath walks the remaining path segments into a value.
// A path ending at Null reports absent: null never references anything.
func descendPath(v cval.Value, segments []string) (cval.Value, bool) {
	for _, seg := range segments {
		obj, ok := v.(cval.Object)
		if !ok {
			return nil, false
		}
		v, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	if _, isNull := v.(cval.Null); isNull {
		return nil, false
	}
	return v, true
}

// resolveFilter keeps the parent members whose predicate evaluates true.
// An evaluation that hits missing or mistyped data counts as false for
// that member and is never escalated - filters must tolerate
// heterogeneous entities in a mixed result set.
func (e *Engine) resolveFilter(n *ast.Filter, rc *resolutionContext) (*resultSet, error) {
	parent, err := e.resolveNode(n.Parent, rc)
	if err != nil {
		return nil, err
	}

	out := newResultSet()
	for _, member := range parent.members() {
		id, ok := member.(cval.String)
		if !ok {
			// Only entities can be filtered; a raw array reaching a
			// filter is content that forgot its flatten step.
			if e.filterDiag {
				e.log.Debug("dropping non-entity member at filter",
					"trace_id", rc.traceID,
				)
			}
			continue
		}

		keep, err := e.evalExpr(n.Predicate, evalContext{
			entityID: string(id),
			actorID:  rc.actorID,
			env:      rc.env,
			gateway:  e.gateway,
		})
		if err != nil {
			if e.filterDiag {
				e.log.Debug("filter predicate anomaly, excluding entity",
					"trace_id", rc.traceID,
					"entity", string(id),
					"error", err,
				)
			}
			continue
		}
		if keep {
			out.addID(string(id))
		}
	}
	return out, nil
}

// resolveUnion resolves each branch independently and merges the
// results. Branches are siblings: each descends from this node's own
// context, so they share a depth and may legitimately resolve the same
// scope. A failing branch aborts the whole union - a union means "any of
// these equally valid alternatives", and a broken alternative is a data
// error worth surfacing.
func (e *Engine) resolveUnion(n *ast.Union, rc *resolutionContext) (*resultSet, error) {
	out := newResultSet()
	for _, branch := range n.Branches {
		bs, err := e.resolveNode(branch, rc)
		if err != nil {
			return nil, err
		}
		if err := out.merge(bs); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// resolveIteration flattens one array level from the parent result.
// Array elements that are entity identifiers join the output; other
// elements are skipped. Scalar identifiers pass through unchanged so the
// same expression works for single- and multi-valued fields.
func (e *Engine) resolveIteration(n *ast.ArrayIteration, rc *resolutionContext) (*resultSet, error) {
	parent, err := e.resolveNode(n.Parent, rc)
	if err != nil {
		return nil, err
	}

	out := newResultSet()
	for _, member := range parent.members() {
		switch m := member.(type) {
		case cval.Array:
			for _, elem := range m {
				if s, ok := elem.(cval.String); ok {
					out.addID(string(s))
				}
			}
		case cval.String:
			out.addID(string(m))
		}
	}
	return out, nil
}

// resolveReference resolves a registered scope in the current context,
// unchanged apart from the depth/cycle bookkeeping resolveNode already
// applied for this node: the referenced scope sees the same acting
// entity and environment as the referrer.
func (e *Engine) resolveReference(n *ast.ScopeReference, rc *resolutionContext) (*resultSet, error) {
	target, ok := rc.registry.Lookup(n.ScopeID)
	if !ok {
		return nil, NewUnknownScopeError(n.ScopeID, rc.chain)
	}
	return e.resolveNode(target, rc)
}
