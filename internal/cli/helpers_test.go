package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/digisim/internal/engine"
)

func rootOpts(format string) *RootOptions {
	return &RootOptions{Format: format}
}

func circuitPath(name string) string {
	return filepath.Join("testdata", "circuits", name+".cue")
}

// execute runs cmd with args and returns what it wrote to stdout.
// Logs go to a separate buffer so they never mix with results.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(logs)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// runCmd returns a run command whose recorded runs get the given ids.
func runCmd(format string, ids ...string) *cobra.Command {
	return newRunCommand(&RunOptions{
		RootOptions: &RootOptions{Format: format},
		runIDs:      engine.NewFixedGenerator(ids...),
	})
}

// recordAnd2 records one settled run of the AND gate under id and returns
// the database path.
func recordAnd2(t *testing.T, id string) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "runs.db")
	_, err := execute(runCmd("text", id), circuitPath("and2"), "--set", "a=1", "--set", "b=1", "--db", db)
	require.NoError(t, err)
	return db
}

// decodeResponse parses a JSON CLIResponse whose data has type T.
func decodeResponse[T any](t *testing.T, out string) (CLIResponse, T) {
	t.Helper()
	var data T
	resp := CLIResponse{Data: &data}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp, data
}
