package engine

import (
	"github.com/calegray/scopedsl/internal/ast"
	"github.com/calegray/scopedsl/internal/cval"
)

// resolveSource produces the base entity set for a leaf Source node.
// It never recurses.
//
// Source kinds are an open, data-driven enum: content written for a
// newer engine may carry kinds this build does not know. Unknown kinds
// fail closed - an empty set and a logged warning - rather than aborting
// the resolution, so content version skew degrades instead of crashing
// action discovery.
func (e *Engine) resolveSource(n *ast.Source, rc *resolutionContext) (*resultSet, error) {
	out := newResultSet()

	switch n.Kind {
	case ast.SourceActor:
		out.addID(rc.actorID)

	case ast.SourceLocation:
		loc, ok := e.actorLocation(rc.actorID)
		if !ok {
			// An actor with no position resolves location scopes to
			// nothing. Not an error: disembodied actors exist.
			e.log.Debug("actor has no position, location source is empty",
				"trace_id", rc.traceID,
				"actor", rc.actorID,
			)
			return out, nil
		}
		for _, id := range e.gateway.EntitiesAtLocation(loc) {
			out.addID(id)
		}

	case ast.SourceEntities:
		for _, id := range e.gateway.EntitiesOfType(n.Param) {
			out.addID(id)
		}

	default:
		e.log.Warn("unknown source kind, resolving to empty set",
			"trace_id", rc.traceID,
			"kind", string(n.Kind),
		)
	}

	return out, nil
}

// actorLocation reads the acting entity's current location from its
// position component.
func (e *Engine) actorLocation(actorID string) (string, bool) {
	comp, ok := e.gateway.Component(actorID, PositionComponent)
	if !ok {
		return "", false
	}
	obj, ok := comp.(cval.Object)
	if !ok {
		return "", false
	}
	loc, ok := obj[LocationField].(cval.String)
	if !ok || loc == "" {
		return "", false
	}
	return string(loc), true
}
