package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calegray/scopedsl/internal/cval"
)

func TestValidate_SoundTree(t *testing.T) {
	tree := &Filter{
		Parent: &Step{
			Parent: &Source{Kind: SourceLocation},
			Field:  "occupants",
		},
		Predicate: &And{Operands: []Expr{
			&Compare{Op: OpExists, Path: "sitting"},
			&Not{Operand: &CompareRef{Op: OpEquals, Path: "id", Ref: "actor"}},
		}},
	}

	result := Validate(tree)
	assert.True(t, result.OK)
	assert.Empty(t, result.Findings)
}

func TestValidate_NilTree(t *testing.T) {
	result := Validate(nil)
	require.False(t, result.OK)
	assert.Contains(t, result.Findings[0], "nil node")
}

func TestValidate_EmptyUnion(t *testing.T) {
	result := Validate(&Union{})
	require.False(t, result.OK)
	assert.Contains(t, result.Findings[0], "no branches")
}

func TestValidate_StepMissingField(t *testing.T) {
	result := Validate(&Step{Parent: &Source{Kind: SourceActor}})
	require.False(t, result.OK)
	assert.Contains(t, result.Findings[0], "empty field")
}

func TestValidate_EntitiesSourceNeedsParam(t *testing.T) {
	result := Validate(&Source{Kind: SourceEntities})
	require.False(t, result.OK)
	assert.Contains(t, result.Findings[0], "component type param")
}

func TestValidate_UnknownCompareOp(t *testing.T) {
	result := Validate(&Filter{
		Parent:    &Source{Kind: SourceActor},
		Predicate: &Compare{Op: "approximates", Path: "mood", Value: cval.String("grim")},
	})
	require.False(t, result.OK)
	assert.Contains(t, result.Findings[0], `unknown comparison operator "approximates"`)
}

func TestValidate_EqualsMissingValue(t *testing.T) {
	result := Validate(&Filter{
		Parent:    &Source{Kind: SourceActor},
		Predicate: &Compare{Op: OpEquals, Path: "mood"},
	})
	require.False(t, result.OK)
	assert.Contains(t, result.Findings[0], "missing its value")
}

func TestValidate_CollectsAllFindings(t *testing.T) {
	result := Validate(&Union{Branches: []Node{
		&Step{Parent: nil, Field: ""},
		&ScopeReference{},
	}})
	require.False(t, result.OK)
	assert.Len(t, result.Findings, 3) // empty field, nil parent, empty scope id
}

func TestValidateRegistry_DanglingReference(t *testing.T) {
	reg := Registry{
		"visible": &ScopeReference{ScopeID: "missing"},
	}

	result := ValidateRegistry(reg)
	require.False(t, result.OK)
	assert.Contains(t, result.Findings[0], `unregistered scope "missing"`)
}

func TestValidateRegistry_ResolvableReferences(t *testing.T) {
	reg := Registry{
		"self":    &Source{Kind: SourceActor},
		"visible": &ScopeReference{ScopeID: "self"},
	}

	result := ValidateRegistry(reg)
	assert.True(t, result.OK)
}

func TestRegistry_Lookup(t *testing.T) {
	reg := Registry{"self": &Source{Kind: SourceActor}}

	n, ok := reg.Lookup("self")
	require.True(t, ok)
	assert.IsType(t, &Source{}, n)

	_, ok = reg.Lookup("other")
	assert.False(t, ok)
}
