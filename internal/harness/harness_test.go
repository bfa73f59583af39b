package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calegray/scopedsl/internal/engine"
)

// The scenario corpus doubles as the golden trace suite: every scenario
// under testdata/scenarios runs through the real engine and its trace
// snapshot is compared byte-for-byte against testdata/golden.
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenario files found")

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, "loading %s", path)

		t.Run(scenario.Name, func(t *testing.T) {
			RunWithGolden(t, scenario)
		})
	}
}

func TestRun_ReportsTargetMismatch(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/sitters_at_tavern.yaml")
	require.NoError(t, err)
	scenario.Expect.IDs = []string{"carol"}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Passed())
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0], "target mismatch")
}

func TestRun_ReportsUnexpectedSuccess(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/sitters_at_tavern.yaml")
	require.NoError(t, err)
	scenario.Expect = ExpectClause{Error: ExpectCycleDetected}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Passed())
	assert.Contains(t, result.Failures[0], "resolution succeeded")
}

func TestRun_ReportsWrongErrorCategory(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/cycle_guard.yaml")
	require.NoError(t, err)
	scenario.Expect = ExpectClause{Error: ExpectDepthExceeded}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Passed())
	assert.Contains(t, result.Failures[0], "expected depth_exceeded error")
}

func TestRun_ResolutionErrorSurfaced(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/cycle_guard.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Passed())
	assert.True(t, engine.IsCycleError(result.ResolutionErr))
	assert.Nil(t, result.IDs)
}

func TestRun_UnknownResolveScope(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/sitters_at_tavern.yaml")
	require.NoError(t, err)
	scenario.Resolve = "nowhere"

	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown scope "nowhere"`)
}

func TestRun_DeterministicAcrossRuns(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/winter_visitors.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Run(scenario)
		require.NoError(t, err)
		assert.Equal(t, first.IDs, again.IDs)
		assert.Equal(t, first.Trace.Events, again.Trace.Events)
	}
}
