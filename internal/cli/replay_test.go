package cli

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayDeterministic(t *testing.T) {
	db := recordAnd2(t, "run-1")
	_, err := execute(runCmd("text", "run-2"), circuitPath("and2"),
		"--stimulus", filepath.Join("testdata", "stimulus.yaml"), "--db", db)
	require.NoError(t, err)

	out, err := execute(NewReplayCommand(rootOpts("text")), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ run-1  ")
	assert.Contains(t, out, "✓ run-2  ")
	assert.Contains(t, out, "✓ 2 run(s) replayed deterministically")
}

func TestReplaySingleRunJSON(t *testing.T) {
	db := recordAnd2(t, "run-1")

	out, err := execute(NewReplayCommand(rootOpts("json")), "--db", db, "--run", "run-1")
	require.NoError(t, err)

	resp, summary := decodeResponse[ReplaySummary](t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, summary.AllDeterministic)
	require.Len(t, summary.Runs, 1)
	assert.Equal(t, summary.Runs[0].Recorded, summary.Runs[0].Replayed)
	assert.Equal(t, -1, summary.Runs[0].Divergence)
}

func TestReplayDetectsTamperedRun(t *testing.T) {
	db := recordAnd2(t, "run-1")

	conn, err := sql.Open("sqlite3", db)
	require.NoError(t, err)
	_, err = conn.Exec(`UPDATE events SET value = '0', resolved = '0' WHERE run_id = 'run-1' AND net = 'y'`)
	require.NoError(t, err)
	_, err = conn.Exec(`UPDATE runs SET digest = 'tampered' WHERE id = 'run-1'`)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	out, err := execute(NewReplayCommand(rootOpts("text")), "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ run-1  diverges at event 2")
	assert.Contains(t, out, "recorded tampered")
	assert.Contains(t, out, "✗ Determinism verification failed")

	out, err = execute(NewReplayCommand(rootOpts("json")), "--db", db)
	require.Error(t, err)
	resp, summary := decodeResponse[ReplaySummary](t, out)
	assert.Equal(t, "E_NONDETERMINISTIC", resp.Error.Code)
	assert.False(t, summary.AllDeterministic)
	assert.False(t, summary.Runs[0].Match)
}

func TestReplayUnknownRun(t *testing.T) {
	db := recordAnd2(t, "run-1")

	out, err := execute(NewReplayCommand(rootOpts("text")), "--db", db, "--run", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "run not found: missing")
}

func TestReplayEmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	out, err := execute(NewReplayCommand(rootOpts("text")), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found in database.")
}
