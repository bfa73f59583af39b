package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calegray/scopedsl/internal/ast"
	"github.com/calegray/scopedsl/internal/cval"
)

// =============================================================================
// Union
// =============================================================================

func TestUnion_OverlappingBranchesYieldSetUnion(t *testing.T) {
	gw := newFakeGateway()
	pos := cval.Object{LocationField: cval.String("yard")}
	gw.set("alice", PositionComponent, pos)
	gw.set("bob", PositionComponent, pos)
	gw.set("alice", "actor_tag", cval.Object{})
	gw.set("carol", "actor_tag", cval.Object{})

	// Branch results {alice,bob} and {alice,carol} overlap on alice.
	tree := &ast.Union{Branches: []ast.Node{
		&ast.Source{Kind: ast.SourceLocation},
		&ast.Source{Kind: ast.SourceEntities, Param: "actor_tag"},
	}}

	e := newTestEngine(gw)
	ids, err := e.Resolve(tree, "alice", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, ids.Sorted())
}

func TestUnion_BranchFailureAbortsWhole(t *testing.T) {
	tree := &ast.Union{Branches: []ast.Node{
		&ast.Source{Kind: ast.SourceActor},
		&ast.ScopeReference{ScopeID: "missing"},
	}}

	e := newTestEngine(newFakeGateway())
	_, err := e.Resolve(tree, "alice", nil, ast.Registry{})
	require.Error(t, err)
	assert.True(t, IsStructuralError(err))
}

func TestUnion_SiblingBranchesMayShareAScope(t *testing.T) {
	// The same scope resolved in sibling branches is legitimate reuse,
	// not a cycle: the visited ledger is per active path.
	reg := ast.Registry{"self": &ast.Source{Kind: ast.SourceActor}}
	tree := &ast.Union{Branches: []ast.Node{
		&ast.ScopeReference{ScopeID: "self"},
		&ast.ScopeReference{ScopeID: "self"},
	}}

	e := newTestEngine(newFakeGateway())
	ids, err := e.Resolve(tree, "alice", nil, reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, ids.Sorted())
}

// =============================================================================
// Step
// =============================================================================

func TestStep_MissingFieldSkipsEntity(t *testing.T) {
	gw := newFakeGateway()
	pos := cval.Object{LocationField: cval.String("yard")}
	gw.set("alice", PositionComponent, pos)
	gw.set("bob", PositionComponent, pos)
	gw.set("bob", "leading", cval.Object{"follower": cval.String("rex")})

	tree := &ast.Step{
		Parent: &ast.Source{Kind: ast.SourceLocation},
		Field:  "leading.follower",
	}

	e := newTestEngine(gw)
	ids, err := e.Resolve(tree, "alice", nil, nil)
	require.NoError(t, err)
	// alice has no leading component: skipped, not errored.
	assert.Equal(t, []string{"rex"}, ids.Sorted())
}

func TestStep_NullFieldSkipsEntity(t *testing.T) {
	gw := newFakeGateway()
	gw.set("alice", "leading", cval.Object{"follower": cval.Null{}})

	tree := &ast.Step{
		Parent: &ast.Source{Kind: ast.SourceActor},
		Field:  "leading.follower",
	}

	e := newTestEngine(gw)
	ids, err := e.Resolve(tree, "alice", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStep_ArraySurfacedRawUntilFlattened(t *testing.T) {
	gw := newFakeGateway()
	gw.set("alice", "closeness", cval.Object{
		"partners": cval.Array{cval.String("bob"), cval.String("carol")},
	})

	step := &ast.Step{
		Parent: &ast.Source{Kind: ast.SourceActor},
		Field:  "closeness.partners",
	}

	e := newTestEngine(gw)

	// Without flattening the raw array is not an identifier, so the
	// top-level result keeps nothing.
	ids, err := e.Resolve(step, "alice", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// Flattening the same step yields the partner identifiers.
	ids, err = e.Resolve(&ast.ArrayIteration{Parent: step}, "alice", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, ids.Sorted())
}

// =============================================================================
// ArrayIteration
// =============================================================================

func TestArrayIteration_DeduplicatesElements(t *testing.T) {
	gw := newFakeGateway()
	gw.set("alice", "closeness", cval.Object{
		"partners": cval.Array{cval.String("a"), cval.String("b"), cval.String("a")},
	})

	tree := &ast.ArrayIteration{Parent: &ast.Step{
		Parent: &ast.Source{Kind: ast.SourceActor},
		Field:  "closeness.partners",
	}}

	e := newTestEngine(gw)
	ids, err := e.Resolve(tree, "alice", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids.Sorted())
}

func TestArrayIteration_SkipsNonIdentifierElements(t *testing.T) {
	gw := newFakeGateway()
	gw.set("alice", "closeness", cval.Object{
		"partners": cval.Array{cval.String("bob"), cval.Int(7), cval.Bool(true)},
	})

	tree := &ast.ArrayIteration{Parent: &ast.Step{
		Parent: &ast.Source{Kind: ast.SourceActor},
		Field:  "closeness.partners",
	}}

	e := newTestEngine(gw)
	ids, err := e.Resolve(tree, "alice", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, ids.Sorted())
}

func TestArrayIteration_ScalarIdentifierPassesThrough(t *testing.T) {
	gw := newFakeGateway()
	gw.set("alice", "sitting", cval.Object{"furniture": cval.String("bench")})

	tree := &ast.ArrayIteration{Parent: &ast.Step{
		Parent: &ast.Source{Kind: ast.SourceActor},
		Field:  "sitting.furniture",
	}}

	e := newTestEngine(gw)
	ids, err := e.Resolve(tree, "alice", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"bench"}, ids.Sorted())
}

// =============================================================================
// Filter
// =============================================================================

func TestFilter_MissingFieldExcludesEntityWithoutError(t *testing.T) {
	gw := newFakeGateway()
	pos := cval.Object{LocationField: cval.String("yard")}
	gw.set("alice", PositionComponent, pos)
	gw.set("bob", PositionComponent, pos)
	gw.set("bob", "mood", cval.Object{"state": cval.String("grim")})

	tree := &ast.Filter{
		Parent:    &ast.Source{Kind: ast.SourceLocation},
		Predicate: &ast.Compare{Op: ast.OpEquals, Path: "mood.state", Value: cval.String("grim")},
	}

	e := newTestEngine(gw)
	ids, err := e.Resolve(tree, "alice", nil, nil)
	require.NoError(t, err)
	// alice lacks mood entirely: excluded, never an error.
	assert.Equal(t, []string{"bob"}, ids.Sorted())
}

func TestFilter_DiagnosticsModeKeepsSameOutcome(t *testing.T) {
	gw := newFakeGateway()
	gw.set("alice", PositionComponent, cval.Object{LocationField: cval.String("yard")})

	tree := &ast.Filter{
		Parent:    &ast.Source{Kind: ast.SourceLocation},
		Predicate: &ast.Compare{Op: ast.OpEquals, Path: "mood.state", Value: cval.String("grim")},
	}

	plain := newTestEngine(gw)
	strict := newTestEngine(gw, WithFilterDiagnostics())

	a, err := plain.Resolve(tree, "alice", nil, nil)
	require.NoError(t, err)
	b, err := strict.Resolve(tree, "alice", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

// =============================================================================
// ScopeReference
// =============================================================================

func TestScopeReference_SeesReferrerContext(t *testing.T) {
	gw := tavernWorld()
	reg := ast.Registry{
		"here": &ast.Source{Kind: ast.SourceLocation},
	}

	tree := &ast.Filter{
		Parent: &ast.ScopeReference{ScopeID: "here"},
		Predicate: &ast.Not{
			Operand: &ast.CompareRef{Op: ast.OpEquals, Path: "id", Ref: "actor"},
		},
	}

	e := newTestEngine(gw)
	ids, err := e.Resolve(tree, "alice", nil, reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, ids.Sorted())
}

func TestScopeReference_DanglingIsStructural(t *testing.T) {
	e := newTestEngine(newFakeGateway())
	_, err := e.Resolve(&ast.ScopeReference{ScopeID: "missingScope"}, "alice", nil, ast.Registry{})
	require.Error(t, err)
	assert.True(t, IsStructuralError(err))
	assert.Contains(t, err.Error(), "missingScope")
}
