package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calegray/scopedsl/internal/cval"
)

func TestResultSet_DeduplicatesIdentifiers(t *testing.T) {
	rs := newResultSet()
	rs.addID("bob")
	rs.addID("bob")
	rs.addID("carol")
	assert.Equal(t, 2, rs.size())
}

func TestResultSet_DeduplicatesStructuredValuesByContent(t *testing.T) {
	rs := newResultSet()
	require.NoError(t, rs.add(cval.Array{cval.String("a"), cval.String("b")}))
	require.NoError(t, rs.add(cval.Array{cval.String("a"), cval.String("b")}))
	require.NoError(t, rs.add(cval.Array{cval.String("b"), cval.String("a")}))
	assert.Equal(t, 2, rs.size(), "equal arrays collapse, reordered arrays do not")
}

func TestResultSet_IDsKeepOnlyIdentifiers(t *testing.T) {
	rs := newResultSet()
	rs.addID("bob")
	require.NoError(t, rs.add(cval.Array{cval.String("x")}))
	require.NoError(t, rs.add(cval.Int(7)))

	ids := rs.ids()
	assert.Equal(t, []string{"bob"}, ids.Sorted())
}

func TestResultSet_AddRejectsUnhashable(t *testing.T) {
	rs := newResultSet()
	err := rs.add(cval.Array{cval.Null{}})
	require.Error(t, err)
	assert.Equal(t, 0, rs.size())
}

func TestIDSet_Contains(t *testing.T) {
	s := IDSet{"bob": {}}
	assert.True(t, s.Contains("bob"))
	assert.False(t, s.Contains("alice"))
}
