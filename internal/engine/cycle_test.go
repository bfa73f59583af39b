package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calegray/scopedsl/internal/ast"
)

// mutualRegistry builds scopeA -> ScopeReference(scopeB) and
// scopeB -> ScopeReference(scopeA).
func mutualRegistry() ast.Registry {
	return ast.Registry{
		"scopeA": &ast.ScopeReference{ScopeID: "scopeB"},
		"scopeB": &ast.ScopeReference{ScopeID: "scopeA"},
	}
}

func TestCycle_MutualReferencesTerminate(t *testing.T) {
	e := newTestEngine(newFakeGateway())

	for _, entry := range []string{"scopeA", "scopeB"} {
		_, err := e.ResolveScope(entry, "alice", nil, mutualRegistry())
		require.Error(t, err, "entry point %s", entry)
		assert.True(t, IsCycleError(err), "entry point %s", entry)
	}
}

func TestCycle_SelfReference(t *testing.T) {
	reg := ast.Registry{"narcissus": &ast.ScopeReference{ScopeID: "narcissus"}}

	e := newTestEngine(newFakeGateway())
	_, err := e.ResolveScope("narcissus", "alice", nil, reg)
	require.Error(t, err)
	assert.True(t, IsCycleError(err))
}

func TestCycle_ErrorCarriesOffendingChain(t *testing.T) {
	e := newTestEngine(newFakeGateway())
	_, err := e.ResolveScope("scopeA", "alice", nil, mutualRegistry())
	require.Error(t, err)

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeCycleDetected, re.Code)
	// The chain shows the loop closing back on its first key.
	require.NotEmpty(t, re.Chain)
	assert.Equal(t, re.Chain[0], re.Chain[len(re.Chain)-1])
}

func TestCycle_RevisitAcrossResolutionsIsFine(t *testing.T) {
	// The visited ledger is per top-level call, never a global cache.
	reg := ast.Registry{"self": &ast.Source{Kind: ast.SourceActor}}
	tree := &ast.ScopeReference{ScopeID: "self"}

	e := newTestEngine(newFakeGateway())
	for i := 0; i < 3; i++ {
		_, err := e.Resolve(tree, "alice", nil, reg)
		require.NoError(t, err)
	}
}

func TestCycle_DeepButAcyclicChainResolves(t *testing.T) {
	// A long acyclic reference chain is legitimate and must not trip
	// the cycle detector.
	reg := ast.Registry{
		"a": &ast.ScopeReference{ScopeID: "b"},
		"b": &ast.ScopeReference{ScopeID: "c"},
		"c": &ast.Source{Kind: ast.SourceActor},
	}

	e := newTestEngine(newFakeGateway())
	ids, err := e.ResolveScope("a", "alice", nil, reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, ids.Sorted())
}
