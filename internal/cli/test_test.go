package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/digisim/internal/harness"
	"github.com/roach88/digisim/internal/store"
)

// copyScenario writes the named scenario into dir with an absolute circuit
// path, so goldens can be written next to it.
func copyScenario(t *testing.T, dir, name string) string {
	t.Helper()
	src := filepath.Join("testdata", "scenarios", name+".yaml")
	s, err := harness.LoadScenario(src)
	require.NoError(t, err)
	abs, err := filepath.Abs(s.Circuit)
	require.NoError(t, err)

	data, err := os.ReadFile(src)
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "circuit:") {
			lines[i] = "circuit: " + abs
		}
	}

	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))
	return path
}

func TestTestCommandAllPass(t *testing.T) {
	out, err := execute(NewTestCommand(rootOpts("text")), filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ and2_truth\n")
	assert.Contains(t, out, "✓ ring3_horizon\n")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilter(t *testing.T) {
	out, err := execute(NewTestCommand(rootOpts("json")), filepath.Join("testdata", "scenarios"), "--filter", "ring*")
	require.NoError(t, err)

	resp, result := decodeResponse[TestResult](t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "ring3_horizon", result.Scenarios[0].Name)
	assert.NotEmpty(t, result.Scenarios[0].Digest)
}

func TestTestCommandBadFilter(t *testing.T) {
	_, err := execute(NewTestCommand(rootOpts("text")), filepath.Join("testdata", "scenarios"), "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandFailure(t *testing.T) {
	out, err := execute(NewTestCommand(rootOpts("text")), filepath.Join("testdata", "failing"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ and2_wrong")
	assert.Contains(t, out, "Assertion failed: final_value")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTestCommandFailureJSON(t *testing.T) {
	out, err := execute(NewTestCommand(rootOpts("json")), filepath.Join("testdata", "failing"))
	require.Error(t, err)

	resp, result := decodeResponse[TestResult](t, out)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 1, result.Failed)
	assert.False(t, result.Scenarios[0].Pass)
	assert.NotEmpty(t, result.Scenarios[0].Errors)
}

func TestTestCommandGoldenFiles(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, dir, "and2_truth")

	out, err := execute(NewTestCommand(rootOpts("text")), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ and2_truth (golden updated)")

	goldenPath := filepath.Join(dir, "golden", "and2_truth.golden")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `{"scenario":"and2_truth","trace":{"circuit":"and2"`)

	// Same bytes as the harness goldens.
	harnessGolden, err := os.ReadFile(filepath.Join("..", "harness", "testdata", "golden", "and2_truth.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(harnessGolden), string(golden))

	_, err = execute(NewTestCommand(rootOpts("text")), dir)
	require.NoError(t, err, "a run matches its own golden")

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"scenario":"and2_truth"}`), 0o644))
	out, err = execute(NewTestCommand(rootOpts("text")), dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandLoadErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("name: broken\n"), 0o644))

	out, err := execute(NewTestCommand(rootOpts("text")), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandRecordsRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	_, err := execute(NewTestCommand(rootOpts("text")), filepath.Join("testdata", "scenarios"), "--db", db)
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.NotEqual(t, runs[0].ID, runs[1].ID, "each scenario gets its own run id")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := execute(NewTestCommand(rootOpts("text")), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandNonExistentDir(t *testing.T) {
	_, err := execute(NewTestCommand(rootOpts("text")), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(NewTestCommand(rootOpts("text")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
