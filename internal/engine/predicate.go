package engine

import (
	"fmt"
	"strings"

	"github.com/calegray/scopedsl/internal/ast"
	"github.com/calegray/scopedsl/internal/cval"
)

// evalContext is the per-entity view a filter predicate evaluates
// against. Component data is fetched lazily through the gateway as paths
// resolve, merged conceptually with the ambient identifiers and the
// environment snapshot:
//
//	"id"      - the entity under evaluation
//	"actor"   - the acting entity
//	"env.*"   - fields of the environment snapshot
//	"<comp>"  - the entity's component of that type, then nested fields
type evalContext struct {
	entityID string
	actorID  string
	env      cval.Object
	gateway  Gateway
}

// lookup resolves a dotted path. The second return is false when the
// path does not resolve to a non-null value.
func (c evalContext) lookup(path string) (cval.Value, bool) {
	segments := strings.Split(path, ".")

	switch segments[0] {
	case "id":
		if len(segments) > 1 {
			return nil, false
		}
		return cval.String(c.entityID), true
	case "actor":
		if len(segments) > 1 {
			return nil, false
		}
		return cval.String(c.actorID), true
	case "env":
		if c.env == nil {
			return nil, false
		}
		return descendPath(c.env, segments[1:])
	default:
		comp, ok := c.gateway.Component(c.entityID, segments[0])
		if !ok {
			return nil, false
		}
		return descendPath(comp, segments[1:])
	}
}

// evalExpr evaluates a predicate expression by recursive descent.
//
// And short-circuits on the first false operand, Or on the first true
// one. A returned error is a per-entity data anomaly (missing field,
// kind mismatch) - the caller treats it as "predicate is false" for that
// entity, never as a resolution failure.
func (e *Engine) evalExpr(expr ast.Expr, ctx evalContext) (bool, error) {
	switch x := expr.(type) {
	case *ast.And:
		for _, op := range x.Operands {
			ok, err := e.evalExpr(op, ctx)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil

	case *ast.Or:
		for _, op := range x.Operands {
			ok, err := e.evalExpr(op, ctx)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case *ast.Not:
		ok, err := e.evalExpr(x.Operand, ctx)
		if err != nil {
			return false, err
		}
		return !ok, nil

	case *ast.Compare:
		return evalCompare(x.Op, x.Path, x.Value, ctx)

	case *ast.CompareRef:
		if x.Op == ast.OpExists {
			return evalCompare(x.Op, x.Path, nil, ctx)
		}
		operand, ok := ctx.lookup(x.Ref)
		if !ok {
			return false, fmt.Errorf("ref path %q did not resolve", x.Ref)
		}
		return evalCompare(x.Op, x.Path, operand, ctx)

	default:
		return false, fmt.Errorf("unknown expression type %T", expr)
	}
}

// evalCompare applies one leaf comparison. Operand kinds must match the
// field's kind exactly; comparing a number to a string is a data
// anomaly, not a falsy coincidence.
func evalCompare(op ast.CompareOp, path string, operand cval.Value, ctx evalContext) (bool, error) {
	if op == ast.OpExists {
		_, ok := ctx.lookup(path)
		return ok, nil
	}

	fieldVal, ok := ctx.lookup(path)
	if !ok {
		return false, fmt.Errorf("path %q did not resolve", path)
	}

	switch op {
	case ast.OpEquals:
		return cval.Equal(fieldVal, operand), nil

	case ast.OpContains:
		switch fv := fieldVal.(type) {
		case cval.Array:
			for _, elem := range fv {
				if cval.Equal(elem, operand) {
					return true, nil
				}
			}
			return false, nil
		case cval.String:
			sub, ok := operand.(cval.String)
			if !ok {
				return false, fmt.Errorf("contains on string path %q requires a string operand, got %T", path, operand)
			}
			return strings.Contains(string(fv), string(sub)), nil
		default:
			return false, fmt.Errorf("contains is not defined for %T at path %q", fieldVal, path)
		}

	default:
		return false, fmt.Errorf("unknown comparison operator %q", op)
	}
}
