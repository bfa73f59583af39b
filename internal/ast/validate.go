package ast

import "fmt"

// ValidationResult contains structural findings for a scope expression.
//
// Validation runs at content-load time so defects surface before the
// first resolution instead of mid-query. A tree with findings will still
// be rejected by the engine at resolution time; validating early just
// moves the failure to where the content author can see it.
type ValidationResult struct {
	// OK indicates the tree (and, for ValidateRegistry, every registered
	// tree) is structurally sound.
	OK bool

	// Findings lists structural defects. Empty when OK is true.
	Findings []string
}

// Validate checks one scope expression tree for structural defects:
// nil children, empty unions, blank step fields, blank scope references,
// unknown comparison operators, and comparisons missing their operand.
//
// Validate is a pure function with no side effects. It does not check
// that referenced scopes exist; use ValidateRegistry for that.
func Validate(root Node) ValidationResult {
	v := &validator{}
	v.node(root, "scope")
	return ValidationResult{OK: len(v.findings) == 0, Findings: v.findings}
}

// ValidateRegistry validates every registered scope and additionally
// checks that each ScopeReference targets a registered identifier.
// An undefined scope reference is always a content bug.
func ValidateRegistry(reg Registry) ValidationResult {
	v := &validator{reg: reg}
	for _, id := range reg.ScopeIDs() {
		v.node(reg[id], id)
	}
	return ValidationResult{OK: len(v.findings) == 0, Findings: v.findings}
}

// validator accumulates findings during traversal.
type validator struct {
	reg      Registry // nil when validating a lone tree
	findings []string
}

func (v *validator) add(format string, args ...any) {
	v.findings = append(v.findings, fmt.Sprintf(format, args...))
}

func (v *validator) node(n Node, at string) {
	if n == nil {
		v.add("%s: nil node", at)
		return
	}

	switch node := n.(type) {
	case *Source:
		if node.Kind == "" {
			v.add("%s: source with empty kind", at)
		}
		if node.Kind == SourceEntities && node.Param == "" {
			v.add("%s: entities source requires a component type param", at)
		}

	case *Step:
		if node.Field == "" {
			v.add("%s: step with empty field", at)
		}
		v.node(node.Parent, at+"/step")

	case *Filter:
		if node.Predicate == nil {
			v.add("%s: filter with nil predicate", at)
		} else {
			v.expr(node.Predicate, at+"/filter")
		}
		v.node(node.Parent, at+"/filter")

	case *Union:
		if len(node.Branches) == 0 {
			v.add("%s: union with no branches", at)
		}
		for i, branch := range node.Branches {
			v.node(branch, fmt.Sprintf("%s/union[%d]", at, i))
		}

	case *ArrayIteration:
		v.node(node.Parent, at+"/flatten")

	case *ScopeReference:
		if node.ScopeID == "" {
			v.add("%s: scope reference with empty id", at)
		} else if v.reg != nil {
			if _, ok := v.reg.Lookup(node.ScopeID); !ok {
				v.add("%s: reference to unregistered scope %q", at, node.ScopeID)
			}
		}

	default:
		// Unreachable for trees built from this package; kept for the
		// nil-interface-in-concrete-type edge.
		v.add("%s: unknown node type %T", at, n)
	}
}

func (v *validator) expr(e Expr, at string) {
	if e == nil {
		v.add("%s: nil expression", at)
		return
	}

	switch expr := e.(type) {
	case *And:
		for i, op := range expr.Operands {
			v.expr(op, fmt.Sprintf("%s/and[%d]", at, i))
		}
	case *Or:
		for i, op := range expr.Operands {
			v.expr(op, fmt.Sprintf("%s/or[%d]", at, i))
		}
	case *Not:
		v.expr(expr.Operand, at+"/not")
	case *Compare:
		v.compareOp(expr.Op, at)
		if expr.Path == "" {
			v.add("%s: comparison with empty path", at)
		}
		if expr.Op != OpExists && expr.Value == nil {
			v.add("%s: %s comparison missing its value", at, expr.Op)
		}
	case *CompareRef:
		v.compareOp(expr.Op, at)
		if expr.Path == "" {
			v.add("%s: comparison with empty path", at)
		}
		if expr.Op != OpExists && expr.Ref == "" {
			v.add("%s: %s comparison missing its ref path", at, expr.Op)
		}
	default:
		v.add("%s: unknown expression type %T", at, e)
	}
}

func (v *validator) compareOp(op CompareOp, at string) {
	switch op {
	case OpEquals, OpContains, OpExists:
	default:
		v.add("%s: unknown comparison operator %q", at, op)
	}
}
