// Package compiler turns CUE scope definitions into executable scope
// trees.
//
// Scope content is authored as a CUE struct mapping scope identifiers to
// node expressions:
//
//	scopes: {
//		sitters_here: {
//			filter: {
//				from: {source: {kind: "location"}}
//				where: {and: [
//					{compare: {path: "sitting", op: "exists"}},
//					{not: {compare: {path: "id", op: "equals", ref: "actor"}}},
//				]}
//			}
//		}
//	}
//
// Each node is a single-field struct whose field name selects the node
// kind: source, step, filter, union, flatten, or ref. Predicate
// expressions follow the same convention with and, or, not, and compare.
// A compare with a "value" field tests against a literal; with a "ref"
// field it tests against another context path; with neither it must use
// the exists operator.
//
// Uses CUE SDK's Go API directly (not CLI subprocess). Compiled trees
// are structurally validated before they are returned, so a successful
// compile yields a registry the engine will accept.
package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/calegray/scopedsl/internal/ast"
	"github.com/calegray/scopedsl/internal/cval"
)

// node kind field names, in lookup order.
var nodeKinds = []string{"source", "step", "filter", "union", "flatten", "ref"}

// expr kind field names, in lookup order.
var exprKinds = []string{"and", "or", "not", "compare"}

// Compile parses a CUE value holding a "scopes" struct into a validated
// scope registry.
func Compile(v cue.Value) (ast.Registry, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	scopesVal := v.LookupPath(cue.ParsePath("scopes"))
	if !scopesVal.Exists() {
		return nil, &CompileError{
			Field:   "scopes",
			Message: "scopes struct is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := scopesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	registry := ast.Registry{}
	for iter.Next() {
		scopeID := iter.Label()
		if _, dup := registry[scopeID]; dup {
			return nil, &CompileError{
				Field:   "scopes",
				Message: fmt.Sprintf("duplicate scope %q", scopeID),
				Pos:     iter.Value().Pos(),
			}
		}
		root, err := compileNode(iter.Value(), "scopes."+scopeID)
		if err != nil {
			return nil, err
		}
		registry[scopeID] = root
	}

	if res := ast.ValidateRegistry(registry); !res.OK {
		return nil, fmt.Errorf("compiled scopes are invalid: %s", strings.Join(res.Findings, "; "))
	}
	return registry, nil
}

// compileNode parses a single-field node struct. field is the dotted
// location used in error messages.
func compileNode(v cue.Value, field string) (ast.Node, error) {
	kind, body, err := discriminate(v, field, nodeKinds)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "source":
		return compileSource(body, field+".source")
	case "step":
		return compileStep(body, field+".step")
	case "filter":
		return compileFilter(body, field+".filter")
	case "union":
		return compileUnion(body, field+".union")
	case "flatten":
		from, err := compileNode(body.LookupPath(cue.ParsePath("from")), field+".flatten.from")
		if err != nil {
			return nil, err
		}
		return &ast.ArrayIteration{Parent: from}, nil
	case "ref":
		scope, err := requiredString(body, "scope", field+".ref")
		if err != nil {
			return nil, err
		}
		return &ast.ScopeReference{ScopeID: scope}, nil
	default:
		// discriminate only returns kinds from nodeKinds.
		panic("unreachable node kind: " + kind)
	}
}

func compileSource(v cue.Value, field string) (ast.Node, error) {
	kindStr, err := requiredString(v, "kind", field)
	if err != nil {
		return nil, err
	}

	var kind ast.SourceKind
	switch kindStr {
	case "actor":
		kind = ast.SourceActor
	case "location":
		kind = ast.SourceLocation
	case "entities":
		kind = ast.SourceEntities
	default:
		return nil, &CompileError{
			Field:   field + ".kind",
			Message: fmt.Sprintf("unknown source kind %q (want actor, location, or entities)", kindStr),
			Pos:     v.Pos(),
		}
	}

	src := &ast.Source{Kind: kind}
	paramVal := v.LookupPath(cue.ParsePath("param"))
	if paramVal.Exists() {
		param, err := paramVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		src.Param = param
	}
	if kind == ast.SourceEntities && src.Param == "" {
		return nil, &CompileError{
			Field:   field + ".param",
			Message: "entities source requires a component type param",
			Pos:     v.Pos(),
		}
	}
	return src, nil
}

func compileStep(v cue.Value, field string) (ast.Node, error) {
	from, err := compileNode(v.LookupPath(cue.ParsePath("from")), field+".from")
	if err != nil {
		return nil, err
	}
	fieldPath, err := requiredString(v, "field", field)
	if err != nil {
		return nil, err
	}
	return &ast.Step{Parent: from, Field: fieldPath}, nil
}

func compileFilter(v cue.Value, field string) (ast.Node, error) {
	from, err := compileNode(v.LookupPath(cue.ParsePath("from")), field+".from")
	if err != nil {
		return nil, err
	}
	whereVal := v.LookupPath(cue.ParsePath("where"))
	if !whereVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".where",
			Message: "filter requires a where expression",
			Pos:     v.Pos(),
		}
	}
	where, err := compileExpr(whereVal, field+".where")
	if err != nil {
		return nil, err
	}
	return &ast.Filter{Parent: from, Predicate: where}, nil
}

func compileUnion(v cue.Value, field string) (ast.Node, error) {
	branchesVal := v.LookupPath(cue.ParsePath("branches"))
	if !branchesVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".branches",
			Message: "union requires a branches list",
			Pos:     v.Pos(),
		}
	}
	iter, err := branchesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var branches []ast.Node
	for i := 0; iter.Next(); i++ {
		branch, err := compileNode(iter.Value(), fmt.Sprintf("%s.branches[%d]", field, i))
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch)
	}
	return &ast.Union{Branches: branches}, nil
}

// compileExpr parses a single-field predicate expression struct.
func compileExpr(v cue.Value, field string) (ast.Expr, error) {
	kind, body, err := discriminate(v, field, exprKinds)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "and":
		operands, err := compileExprList(body, field+".and")
		if err != nil {
			return nil, err
		}
		return &ast.And{Operands: operands}, nil
	case "or":
		operands, err := compileExprList(body, field+".or")
		if err != nil {
			return nil, err
		}
		return &ast.Or{Operands: operands}, nil
	case "not":
		operand, err := compileExpr(body, field+".not")
		if err != nil {
			return nil, err
		}
		return &ast.Not{Operand: operand}, nil
	case "compare":
		return compileCompare(body, field+".compare")
	default:
		panic("unreachable expr kind: " + kind)
	}
}

func compileExprList(v cue.Value, field string) ([]ast.Expr, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var operands []ast.Expr
	for i := 0; iter.Next(); i++ {
		operand, err := compileExpr(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}
	return operands, nil
}

func compileCompare(v cue.Value, field string) (ast.Expr, error) {
	path, err := requiredString(v, "path", field)
	if err != nil {
		return nil, err
	}
	opStr, err := requiredString(v, "op", field)
	if err != nil {
		return nil, err
	}

	var op ast.CompareOp
	switch opStr {
	case "equals":
		op = ast.OpEquals
	case "contains":
		op = ast.OpContains
	case "exists":
		op = ast.OpExists
	default:
		return nil, &CompileError{
			Field:   field + ".op",
			Message: fmt.Sprintf("unknown operator %q (want equals, contains, or exists)", opStr),
			Pos:     v.Pos(),
		}
	}

	valueVal := v.LookupPath(cue.ParsePath("value"))
	refVal := v.LookupPath(cue.ParsePath("ref"))

	switch {
	case valueVal.Exists() && refVal.Exists():
		return nil, &CompileError{
			Field:   field,
			Message: "compare takes value or ref, not both",
			Pos:     v.Pos(),
		}
	case refVal.Exists():
		ref, err := refVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return &ast.CompareRef{Op: op, Path: path, Ref: ref}, nil
	case valueVal.Exists():
		literal, err := compileValue(valueVal, field+".value")
		if err != nil {
			return nil, err
		}
		return &ast.Compare{Op: op, Path: path, Value: literal}, nil
	case op == ast.OpExists:
		return &ast.Compare{Op: op, Path: path}, nil
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s compare requires a value or ref", opStr),
			Pos:     v.Pos(),
		}
	}
}

// compileValue converts a concrete CUE value to component data.
// Floats are forbidden, matching the component data model.
func compileValue(v cue.Value, field string) (cval.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return cval.Null{}, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return cval.String(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return cval.Int(n), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return cval.Bool(b), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := cval.Array{}
		for i := 0; iter.Next(); i++ {
			elem, err := compileValue(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := cval.Object{}
		for iter.Next() {
			key := iter.Label()
			elem, err := compileValue(iter.Value(), field+"."+key)
			if err != nil {
				return nil, err
			}
			obj[key] = elem
		}
		return obj, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   field,
			Message: "float values are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported value kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

// discriminate finds which of the allowed kind fields a node or expr
// struct declares. Exactly one must be present.
func discriminate(v cue.Value, field string, kinds []string) (string, cue.Value, error) {
	if err := v.Err(); err != nil {
		return "", cue.Value{}, formatCUEError(err)
	}
	if !v.Exists() {
		return "", cue.Value{}, &CompileError{
			Field:   field,
			Message: "missing node expression",
			Pos:     v.Pos(),
		}
	}

	var (
		found string
		body  cue.Value
	)
	for _, kind := range kinds {
		kv := v.LookupPath(cue.ParsePath(kind))
		if !kv.Exists() {
			continue
		}
		if found != "" {
			return "", cue.Value{}, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("ambiguous node: both %q and %q present", found, kind),
				Pos:     v.Pos(),
			}
		}
		found = kind
		body = kv
	}
	if found == "" {
		return "", cue.Value{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unknown node: want one of %v", kinds),
			Pos:     v.Pos(),
		}
	}
	return found, body, nil
}

// requiredString reads a mandatory string field from a struct.
func requiredString(v cue.Value, name, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field + "." + name,
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
