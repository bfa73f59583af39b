package ast

import "github.com/calegray/scopedsl/internal/cval"

// Expr is the sealed interface over filter predicate expressions.
//
// Expression types:
//   - And: all operands true (empty operand list is vacuously true)
//   - Or: any operand true (empty operand list is false)
//   - Not: negates its single operand
//   - Compare: field path against a literal value
//   - CompareRef: field path against another field path
//
// Evaluation happens per entity against a context merging the entity's
// component data with the ambient environment snapshot. And/Or
// short-circuit; comparisons use strict semantic-type matching with no
// coercion between kinds.
type Expr interface {
	filterExpr() // Marker method - seals interface to this package
}

// CompareOp names a leaf comparison operator.
type CompareOp string

const (
	// OpEquals tests strict equality between the field value and the
	// comparison operand.
	OpEquals CompareOp = "equals"

	// OpContains tests membership: an array field contains an equal
	// element, a string field contains a substring.
	OpContains CompareOp = "contains"

	// OpExists tests that the field path resolves to a non-null value.
	// The comparison operand is ignored.
	OpExists CompareOp = "exists"
)

// And is a conjunction. Evaluation short-circuits on the first false
// operand; an empty operand list is true.
type And struct {
	Operands []Expr
}

func (*And) filterExpr() {}

// Or is a disjunction. Evaluation short-circuits on the first true
// operand; an empty operand list is false.
type Or struct {
	Operands []Expr
}

func (*Or) filterExpr() {}

// Not negates its single operand.
type Not struct {
	Operand Expr
}

func (*Not) filterExpr() {}

// Compare tests a dotted field path against a literal value.
//
// Example: sitting entities other than the actor
//
//	And{Operands: []Expr{
//	  &Compare{Op: OpExists, Path: "sitting"},
//	  &Not{Operand: &CompareRef{Op: OpEquals, Path: "id", Ref: "actor"}},
//	}}
type Compare struct {
	Op    CompareOp
	Path  string
	Value cval.Value
}

func (*Compare) filterExpr() {}

// CompareRef tests a dotted field path against the value at another path
// in the same evaluation context. This is how a predicate refers to
// ambient facts such as the acting entity ("actor") or environment
// snapshot fields ("env.*") without baking literals into content.
type CompareRef struct {
	Op   CompareOp
	Path string
	Ref  string
}

func (*CompareRef) filterExpr() {}
