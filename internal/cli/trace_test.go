package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordRun runs pass.yaml into a fresh journal and returns its path.
func recordRun(t *testing.T, runID string) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "rill.db")
	_, err := executeRun(t, "text", runID, filepath.Join("testdata", "pass.yaml"), "--db", db)
	require.NoError(t, err)
	return db
}

func executeTrace(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTrace_Text(t *testing.T) {
	db := recordRun(t, "trace-run")

	out, err := executeTrace(t, "text", "trace-run", "--db", db)
	require.NoError(t, err)

	assert.Contains(t, out, "Run trace-run: cli_pass [pass]")
	assert.Regexp(t, `1\s+a\s+u64\s+1`, out)
	assert.Regexp(t, `2\s+a\s+u64\s+2`, out)
	assert.Regexp(t, `3\s+label\s+string\s+"x y"`, out)
}

func TestTrace_JSONWithSignalFilter(t *testing.T) {
	db := recordRun(t, "trace-json")

	out, err := executeTrace(t, "json", "trace-json", "--db", db, "--signal", "label")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "trace-json", resp.Data.Run.ID)
	assert.Equal(t, "pass", resp.Data.Run.Status)
	assert.Equal(t, []TraceEntry{{Seq: 3, Signal: "label", Type: "string", Value: "x y"}}, resp.Data.Observations)
}

func TestTrace_ListRuns(t *testing.T) {
	db := recordRun(t, "listed-run")

	out, err := executeTrace(t, "text", "--db", db)
	require.NoError(t, err)
	assert.Regexp(t, `listed-run\s+cli_pass\s+pass`, out)
}

func TestTrace_ListRunsEmpty(t *testing.T) {
	out, err := executeTrace(t, "text", "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestTrace_UnknownRun(t *testing.T) {
	db := recordRun(t, "known")

	out, err := executeTrace(t, "text", "unknown", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]: run not found: unknown")
}

func TestTrace_RequiresDatabase(t *testing.T) {
	out, err := executeTrace(t, "text", "some-run")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "--db is required")
}
