package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calegray/scopedsl/internal/ast"
)

// refChain builds a registry of n chained scope references ending in an
// actor source, plus the root reference entering the chain. Resolving
// the root traverses exactly n ScopeReference nodes.
func refChain(n int) (ast.Node, ast.Registry) {
	reg := make(ast.Registry, n)
	for i := 0; i < n-1; i++ {
		reg[fmt.Sprintf("s%d", i)] = &ast.ScopeReference{ScopeID: fmt.Sprintf("s%d", i+1)}
	}
	reg[fmt.Sprintf("s%d", n-1)] = &ast.Source{Kind: ast.SourceActor}
	return &ast.ScopeReference{ScopeID: "s0"}, reg
}

func TestDepth_ChainAtMaxDepthSucceeds(t *testing.T) {
	const maxDepth = 5
	root, reg := refChain(maxDepth)

	e := newTestEngine(newFakeGateway(), WithMaxDepth(maxDepth))
	ids, err := e.Resolve(root, "alice", nil, reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, ids.Sorted())
}

func TestDepth_ChainBeyondMaxDepthFails(t *testing.T) {
	const maxDepth = 5
	root, reg := refChain(maxDepth + 1)

	e := newTestEngine(newFakeGateway(), WithMaxDepth(maxDepth))
	_, err := e.Resolve(root, "alice", nil, reg)
	require.Error(t, err)
	assert.True(t, IsDepthError(err))
}

func TestDepth_ErrorReportsDepthAndLimit(t *testing.T) {
	root, reg := refChain(10)

	e := newTestEngine(newFakeGateway(), WithMaxDepth(3))
	_, err := e.Resolve(root, "alice", nil, reg)
	require.Error(t, err)

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeDepthExceeded, re.Code)
	assert.Contains(t, re.Message, "maximum 3")
}

func TestDepth_DefaultAllowsRealisticNesting(t *testing.T) {
	root, reg := refChain(16)

	e := newTestEngine(newFakeGateway())
	_, err := e.Resolve(root, "alice", nil, reg)
	require.NoError(t, err)
}
