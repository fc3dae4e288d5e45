package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/digisim/internal/engine"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"state": "idle"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"state": "idle"}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeNotFound, "circuit not found: x.cue", map[string]int{"line": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E005", resp.Error.Code)
	assert.Equal(t, "circuit not found: x.cue", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error("E009", "unknown net", "zz"))
	assert.Equal(t, "Error [E009]: unknown net\n", buf.String(), "details only in verbose mode")

	buf.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error("E009", "unknown net", "zz"))
	assert.Contains(t, buf.String(), "Details: zz")
}

func TestOutputFormatter_Failure(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Failure(RunResult{State: "oscillating"}, "OSCILLATION", "did not settle"))

	resp, result := decodeResponse[RunResult](t, buf.String())
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "OSCILLATION", resp.Error.Code)
	assert.Equal(t, "oscillating", result.State, "data is kept on failure")

	buf.Reset()
	formatter.Format = "text"
	require.NoError(t, formatter.Failure(nil, "TIME_HORIZON", "events past t=20"))
	assert.Equal(t, "✗ TIME_HORIZON: events past t=20\n", buf.String())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out, diag := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag}

	formatter.VerboseLog("hidden")
	assert.Empty(t, diag.String())

	formatter.Verbose = true
	formatter.VerboseLog("Validating circuit: %s", "and2")
	assert.Equal(t, "Validating circuit: and2\n", diag.String())
	assert.Empty(t, out.String(), "diagnostics never corrupt JSON output")

	formatter.ErrWriter = nil
	formatter.VerboseLog("fallback")
	assert.Equal(t, "fallback\n", out.String())
}

func TestOutputFormatter_RunID(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf, RunID: "run-7"}

	require.NoError(t, formatter.Success(nil))
	resp, _ := decodeResponse[any](t, buf.String())
	assert.Equal(t, "run-7", resp.RunID)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New(`unknown flag: --bogus`)))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("run: %w", &engine.SimulationError{Code: engine.ErrCodeOscillation})))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "replay", errors.New("digest")))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.Equal(t, "outer: replay: digest", wrapped.Error())
}
