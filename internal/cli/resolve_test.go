package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScopes = `scopes: {
	sitters_here: {
		filter: {
			from: {source: {kind: "location"}}
			where: {and: [
				{compare: {path: "sitting", op: "exists"}},
				{not: {compare: {path: "id", op: "equals", ref: "actor"}}},
			]}
		}
	}
	everyone_here: {source: {kind: "location"}}
}
`

const testWorld = `entities:
  - id: alice
    components:
      position: {location: tavern}
  - id: bob
    components:
      position: {location: tavern}
      sitting: {furniture: bench-1}
  - id: carol
    components:
      position: {location: tavern}
`

// writeFixtures lays out scope content and a world fixture in a temp
// directory and returns their paths.
func writeFixtures(t *testing.T) (scopesPath, worldPath string) {
	t.Helper()
	dir := t.TempDir()
	scopesPath = filepath.Join(dir, "scopes.cue")
	worldPath = filepath.Join(dir, "world.yaml")
	require.NoError(t, os.WriteFile(scopesPath, []byte(testScopes), 0o644))
	require.NoError(t, os.WriteFile(worldPath, []byte(testWorld), 0o644))
	return scopesPath, worldPath
}

func TestResolve_TextOutput(t *testing.T) {
	scopes, world := writeFixtures(t)

	out, err := execute(t, "resolve", "sitters_here",
		"--scopes", scopes, "--world", world, "--actor", "alice")
	require.NoError(t, err)
	assert.Equal(t, "bob\n", out)
}

func TestResolve_JSONOutput(t *testing.T) {
	scopes, world := writeFixtures(t)

	out, err := execute(t, "--format", "json", "resolve", "everyone_here",
		"--scopes", scopes, "--world", world, "--actor", "alice")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   ResolveResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "everyone_here", resp.Data.Scope)
	assert.Equal(t, []string{"alice", "bob", "carol"}, resp.Data.Resolved)
	assert.Nil(t, resp.Data.Trace)
}

func TestResolve_TraceOutput(t *testing.T) {
	scopes, world := writeFixtures(t)

	out, err := execute(t, "resolve", "sitters_here",
		"--scopes", scopes, "--world", world, "--actor", "alice", "--trace")
	require.NoError(t, err)
	assert.Contains(t, out, "bob\n")
	assert.Contains(t, out, "trace ")
	assert.Contains(t, out, "source(location) -> 3")
	assert.Contains(t, out, "filter -> 1")
}

func TestResolve_RequiresExactlyOneSnapshot(t *testing.T) {
	scopes, world := writeFixtures(t)

	_, err := execute(t, "resolve", "sitters_here",
		"--scopes", scopes, "--actor", "alice")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "resolve", "sitters_here",
		"--scopes", scopes, "--world", world, "--db", "x.db", "--actor", "alice")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestResolve_UnknownScope(t *testing.T) {
	scopes, world := writeFixtures(t)

	_, err := execute(t, "resolve", "nowhere",
		"--scopes", scopes, "--world", world, "--actor", "alice")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestResolve_CycleMapsToFailureExit(t *testing.T) {
	dir := t.TempDir()
	scopes := filepath.Join(dir, "loops.cue")
	world := filepath.Join(dir, "world.yaml")
	require.NoError(t, os.WriteFile(scopes, []byte(`scopes: {
		loop_a: {ref: {scope: "loop_b"}}
		loop_b: {ref: {scope: "loop_a"}}
	}`), 0o644))
	require.NoError(t, os.WriteFile(world, []byte(testWorld), 0o644))

	_, err := execute(t, "resolve", "loop_a",
		"--scopes", scopes, "--world", world, "--actor", "alice")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "CYCLE_DETECTED")
}

func TestResolve_EnvFlag(t *testing.T) {
	dir := t.TempDir()
	scopes := filepath.Join(dir, "env.cue")
	world := filepath.Join(dir, "world.yaml")
	require.NoError(t, os.WriteFile(scopes, []byte(`scopes: {
		winter_only: {filter: {
			from: {source: {kind: "location"}}
			where: {compare: {path: "env.season", op: "equals", value: "winter"}}
		}}
	}`), 0o644))
	require.NoError(t, os.WriteFile(world, []byte(testWorld), 0o644))

	out, err := execute(t, "resolve", "winter_only",
		"--scopes", scopes, "--world", world, "--actor", "alice",
		"--env", "season=winter")
	require.NoError(t, err)
	assert.Equal(t, "alice\nbob\ncarol\n", out)

	out, err = execute(t, "resolve", "winter_only",
		"--scopes", scopes, "--world", world, "--actor", "alice",
		"--env", "season=summer")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = execute(t, "resolve", "winter_only",
		"--scopes", scopes, "--world", world, "--actor", "alice",
		"--env", "season")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed env entry")
}

func TestResolve_MaxDepthFlag(t *testing.T) {
	dir := t.TempDir()
	scopes := filepath.Join(dir, "hops.cue")
	world := filepath.Join(dir, "world.yaml")
	require.NoError(t, os.WriteFile(scopes, []byte(`scopes: {
		hop0: {ref: {scope: "hop1"}}
		hop1: {ref: {scope: "hop2"}}
		hop2: {source: {kind: "actor"}}
	}`), 0o644))
	require.NoError(t, os.WriteFile(world, []byte(testWorld), 0o644))

	out, err := execute(t, "resolve", "hop0",
		"--scopes", scopes, "--world", world, "--actor", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice\n", out)

	_, err = execute(t, "resolve", "hop0",
		"--scopes", scopes, "--world", world, "--actor", "alice",
		"--max-depth", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEPTH_EXCEEDED")
}

func TestImportThenResolveFromDB(t *testing.T) {
	scopes, world := writeFixtures(t)
	db := filepath.Join(t.TempDir(), "world.db")

	out, err := execute(t, "import", "--world", world, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 3 entities")

	out, err = execute(t, "resolve", "sitters_here",
		"--scopes", scopes, "--db", db, "--actor", "alice")
	require.NoError(t, err)
	assert.Equal(t, "bob\n", out)
}
