package harness

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rill/internal/ir"
	"github.com/roach88/rill/internal/store"
	"github.com/roach88/rill/internal/testutil"
)

const sumGraph = `
input: {
	a: {type: "u64"}
	b: {type: "u64"}
}
node: {
	sum: {op: "add", left: "a", right: "b"}
}
`

func send(input string, value any) Step {
	return Step{Send: &SendStep{Input: input, Value: value}}
}

var (
	startStep    = Step{Start: &struct{}{}}
	shutdownStep = Step{Shutdown: &struct{}{}}
)

func TestRun_MatchingExpectations(t *testing.T) {
	scenario := &Scenario{
		Name:        "matching",
		GraphSource: sumGraph,
		Steps: []Step{
			{Listen: "a"},
			{Emit: "a"},
			startStep,
			send("a", 1),
			send("a", 2),
		},
		Expect: []Expectation{{Signal: "a", Values: []any{1, 2}}},
	}

	result, err := Run(context.Background(), scenario, quietOptions()...)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "golden-run", result.RunID)
	require.Len(t, result.Observations, 2)
	assert.Equal(t, Observation{Signal: "a", Value: ir.Uint64(1), Seq: 1}, result.Observations[0])
	assert.Equal(t, Observation{Signal: "a", Value: ir.Uint64(2), Seq: 2}, result.Observations[1])
}

func TestRun_ReportsMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		GraphSource: sumGraph,
		Steps: []Step{
			{Listen: "a"},
			{Emit: "a"},
			startStep,
			send("a", 1),
		},
		Expect: []Expectation{{Signal: "a", Values: []any{1, 2}}},
	}

	result, err := Run(context.Background(), scenario, quietOptions(WithTimeout(100*time.Millisecond))...)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "signal a: expected [1 2], got [1]", result.Errors[0])
}

func TestRun_ReportsUnexpectedExtraValues(t *testing.T) {
	scenario := &Scenario{
		Name:        "extra",
		GraphSource: sumGraph,
		Steps: []Step{
			{Listen: "b"},
			{Emit: "b"},
			send("b", 5),
			send("b", 6),
			startStep,
		},
		Expect: []Expectation{{Signal: "b", Values: []any{5}}},
	}

	result, err := Run(context.Background(), scenario, quietOptions(WithSettle(200*time.Millisecond))...)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, []string{"signal b: expected [5], got [5 6]"}, result.Errors)
}

func TestRun_DerivedListenerObservesNothing(t *testing.T) {
	// Derived values are computed once when the node is first referenced;
	// later input updates do not flow into them.
	scenario := &Scenario{
		Name:        "derived",
		GraphSource: sumGraph,
		Steps: []Step{
			{Listen: "sum"},
			{Emit: "a"},
			{Emit: "b"},
			startStep,
			send("a", 1),
			send("b", 2),
		},
		Expect: []Expectation{{Signal: "sum", Values: []any{}}},
	}

	result, err := Run(context.Background(), scenario, quietOptions()...)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_ClosedListenerIsNotCollected(t *testing.T) {
	scenario := &Scenario{
		Name:        "closed_listener",
		GraphSource: sumGraph,
		Steps: []Step{
			{Listen: "a"},
			{CloseListener: "a"},
			{Emit: "a"},
			startStep,
			send("a", 1),
		},
	}

	result, err := Run(context.Background(), scenario, quietOptions()...)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Empty(t, result.Observations)
}

func TestRun_StepErrors(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
		want  string
	}{
		{
			name:  "unknown signal",
			steps: []Step{{Listen: "zz"}},
			want:  `step 0 (listen): unknown signal "zz"`,
		},
		{
			name:  "emit on derived",
			steps: []Step{{Emit: "sum"}},
			want:  `step 0 (emit): unknown input "sum"`,
		},
		{
			name:  "send without emitter",
			steps: []Step{send("a", 1)},
			want:  `step 0 (send): no emitter for "a"`,
		},
		{
			name:  "value of wrong type",
			steps: []Step{{Emit: "a"}, send("a", "one")},
			want:  `step 1 (send): value for "a": expected integer, got string`,
		},
		{
			name:  "negative unsigned",
			steps: []Step{{Emit: "a"}, send("a", -1)},
			want:  `step 1 (send): value for "a": negative value -1 for u64`,
		},
		{
			name:  "close unknown emitter",
			steps: []Step{{CloseEmitter: "b"}},
			want:  `step 0 (close_emitter): no emitter for "b"`,
		},
		{
			name:  "close listener twice",
			steps: []Step{{Listen: "a"}, {CloseListener: "a"}, {CloseListener: "a"}},
			want:  `step 2 (close_listener): no listener for "a"`,
		},
		{
			name: "expect closed on open endpoint",
			steps: []Step{
				{Emit: "a"},
				{Send: &SendStep{Input: "a", Value: 1, ExpectClosed: true}},
			},
			want: `step 1 (send): send to "a" succeeded, expected closed endpoint`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := &Scenario{Name: "step_errors", GraphSource: sumGraph, Steps: tt.steps}
			_, err := Run(context.Background(), scenario, quietOptions()...)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestRun_ListenAfterShutdownFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "after_shutdown",
		GraphSource: sumGraph,
		Steps:       []Step{shutdownStep, {Listen: "a"}},
	}

	_, err := Run(context.Background(), scenario, quietOptions()...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENGINE_SHUTDOWN")
}

func TestRun_GraphCompileError(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_graph",
		GraphSource: `input: {}`,
		Steps:       []Step{startStep},
	}

	_, err := Run(context.Background(), scenario, quietOptions()...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile graph_source")
}

func TestRun_GraphFile(t *testing.T) {
	scenario := &Scenario{
		Name:  "graph_file",
		Graph: filepath.Join("testdata", "graphs", "sum.cue"),
		Steps: []Step{{Listen: "product"}, startStep},
		Expect: []Expectation{
			{Signal: "product", Values: []any{}},
		},
	}

	result, err := Run(context.Background(), scenario, quietOptions()...)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func openJournal(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRun_JournalRecordsPassingRun(t *testing.T) {
	ctx := context.Background()
	journal := openJournal(t)

	scenario := &Scenario{
		Name:        "journaled",
		GraphSource: sumGraph,
		Steps: []Step{
			{Listen: "a"},
			{Listen: "b"},
			{Emit: "a"},
			{Emit: "b"},
			send("b", 20),
			send("a", 10),
			startStep,
		},
		Expect: []Expectation{
			{Signal: "a", Values: []any{10}},
			{Signal: "b", Values: []any{20}},
		},
	}

	result, err := Run(ctx, scenario,
		quietOptions(WithJournal(journal), WithRunIDs(testutil.NewFixedRunIDs("run-journal")))...)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	run, err := journal.ReadRun(ctx, "run-journal")
	require.NoError(t, err)
	assert.Equal(t, "journaled", run.Scenario)
	assert.Equal(t, "<inline>", run.Graph)
	assert.Equal(t, ir.EngineVersion, run.EngineVersion)
	assert.Equal(t, ir.DescriptorVersion, run.DescriptorVersion)
	assert.Equal(t, store.RunPass, run.Status)

	obs, err := journal.ReadObservations(ctx, "run-journal")
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, store.Observation{RunID: "run-journal", Seq: 1, Signal: "a", Value: ir.Uint64(10)}, obs[0])
	assert.Equal(t, store.Observation{RunID: "run-journal", Seq: 2, Signal: "b", Value: ir.Uint64(20)}, obs[1])
}

func TestRun_JournalRecordsFailingRun(t *testing.T) {
	ctx := context.Background()
	journal := openJournal(t)

	scenario := &Scenario{
		Name:        "journaled_fail",
		GraphSource: sumGraph,
		Steps:       []Step{{Listen: "a"}, startStep},
		Expect:      []Expectation{{Signal: "a", Values: []any{1}}},
	}

	result, err := Run(ctx, scenario,
		quietOptions(
			WithJournal(journal),
			WithRunIDs(testutil.NewFixedRunIDs("run-fail")),
			WithTimeout(50*time.Millisecond),
		)...)
	require.NoError(t, err)
	assert.False(t, result.Pass)

	run, err := journal.ReadRun(ctx, "run-fail")
	require.NoError(t, err)
	assert.Equal(t, store.RunFail, run.Status)

	obs, err := journal.ReadObservations(ctx, "run-fail")
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestRun_JournalMarksAbortedRunFailed(t *testing.T) {
	ctx := context.Background()
	journal := openJournal(t)

	scenario := &Scenario{
		Name:        "aborted",
		GraphSource: sumGraph,
		Steps:       []Step{{Listen: "nope"}},
	}

	_, err := Run(ctx, scenario,
		quietOptions(WithJournal(journal), WithRunIDs(testutil.NewFixedRunIDs("run-aborted")))...)
	require.Error(t, err)

	run, err := journal.ReadRun(ctx, "run-aborted")
	require.NoError(t, err)
	assert.Equal(t, store.RunFail, run.Status)
}

func TestUUIDv7Generator_Ordered(t *testing.T) {
	var g UUIDv7Generator
	first := g.Generate()
	time.Sleep(2 * time.Millisecond)
	second := g.Generate()

	assert.Len(t, first, 36)
	assert.NotEqual(t, first, second)
	assert.Less(t, first, second)
}
