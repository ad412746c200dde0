package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rill/internal/ir"
	"github.com/roach88/rill/internal/store"
	"github.com/roach88/rill/internal/testutil"
)

func executeRun(t *testing.T, format, runID string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := newRunCommand(&RunOptions{
		RootOptions: &RootOptions{Format: format},
		RunIDs:      testutil.NewFixedRunIDs(runID),
	})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRun_PassingScenario(t *testing.T) {
	out, err := executeRun(t, "text", "cli-run-1", filepath.Join("testdata", "pass.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "PASS cli_pass (run cli-run-1)")
	assert.Contains(t, out, "  a: [1 2]")
	assert.Contains(t, out, `  label: ["x y"]`)
	assert.NotContains(t, out, "Recorded in")
}

func TestRun_PassingScenarioJSON(t *testing.T) {
	out, err := executeRun(t, "json", "cli-run-2", filepath.Join("testdata", "pass.yaml"))
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Pass)
	assert.Equal(t, "cli-run-2", resp.Data.RunID)
	assert.Equal(t, []any{float64(1), float64(2)}, resp.Data.Signals["a"])
	assert.Equal(t, []any{"x y"}, resp.Data.Signals["label"])
}

func TestRun_FailingScenario(t *testing.T) {
	out, err := executeRun(t, "text", "cli-run-3",
		filepath.Join("testdata", "fail.yaml"), "--timeout", "50ms")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "FAIL cli_fail")
	assert.Contains(t, out, "error: signal b: expected [5], got []")
	assert.Contains(t, out, "Error [E006]")
}

func TestRun_MissingScenario(t *testing.T) {
	out, err := executeRun(t, "text", "x", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E004]: failed to load scenario")
}

func TestRun_RecordsJournal(t *testing.T) {
	db := filepath.Join(t.TempDir(), "rill.db")

	out, err := executeRun(t, "text", "cli-run-4", filepath.Join("testdata", "pass.yaml"), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded in "+db)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	run, err := st.ReadRun(ctx, "cli-run-4")
	require.NoError(t, err)
	assert.Equal(t, store.RunPass, run.Status)
	assert.Equal(t, "cli_pass", run.Scenario)

	obs, err := st.ReadObservations(ctx, "cli-run-4")
	require.NoError(t, err)
	require.Len(t, obs, 3)
	assert.Equal(t, ir.Uint64(1), obs[0].Value)
	assert.Equal(t, ir.Uint64(2), obs[1].Value)
	assert.Equal(t, ir.String("x y"), obs[2].Value)
}
