package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "graph.cue", sumGraph)
	path := writeFile(t, dir, "scenario.yaml", `
name: valid
description: "Forwards one value"
graph: graph.cue
steps:
  - listen: a
  - emit: a
  - start: {}
  - send: {input: a, value: 3}
  - close_emitter: a
  - close_listener: a
  - shutdown: {}
expect:
  - signal: a
    values: [3]
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "valid", scenario.Name)
	assert.Equal(t, "Forwards one value", scenario.Description)
	assert.Equal(t, filepath.Join(dir, "graph.cue"), scenario.Graph)
	require.Len(t, scenario.Steps, 7)

	kinds := make([]string, len(scenario.Steps))
	for i, step := range scenario.Steps {
		kinds[i] = step.Kind()
	}
	assert.Equal(t, []string{
		StepListen, StepEmit, StepStart, StepSend,
		StepCloseEmitter, StepCloseListener, StepShutdown,
	}, kinds)

	assert.Equal(t, &SendStep{Input: "a", Value: 3}, scenario.Steps[3].Send)
	assert.Equal(t, []Expectation{{Signal: "a", Values: []any{3}}}, scenario.Expect)
}

func TestLoadScenario_AbsoluteGraphPathKept(t *testing.T) {
	dir := t.TempDir()
	graph := writeFile(t, dir, "graph.cue", sumGraph)
	path := writeFile(t, t.TempDir(), "scenario.yaml", `
name: absolute
graph: `+graph+`
steps:
  - start: {}
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, graph, scenario.Graph)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MissingGraph(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scenario.yaml", `
name: no_graph
graph: missing.cue
steps:
  - start: {}
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "graph not found")
}

func TestParseScenario_InlineGraph(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: inline
graph_source: |
  input: a: type: "string"
steps:
  - listen: a
  - emit: a
  - send: {input: a, value: "hi", expect_closed: true}
`))
	require.NoError(t, err)
	assert.Contains(t, scenario.GraphSource, `type: "string"`)
	assert.True(t, scenario.Steps[2].Send.ExpectClosed)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\ngraph_source: g\nsteps:\n  - start: {}\nflow_token: abc\n",
			want: "failed to parse YAML",
		},
		{
			name: "unknown step kind",
			yaml: "name: x\ngraph_source: g\nsteps:\n  - invoke: a\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			yaml: "graph_source: g\nsteps:\n  - start: {}\n",
			want: "name is required",
		},
		{
			name: "no graph",
			yaml: "name: x\nsteps:\n  - start: {}\n",
			want: "exactly one of graph or graph_source is required",
		},
		{
			name: "both graphs",
			yaml: "name: x\ngraph: g.cue\ngraph_source: g\nsteps:\n  - start: {}\n",
			want: "exactly one of graph or graph_source is required",
		},
		{
			name: "no steps",
			yaml: "name: x\ngraph_source: g\n",
			want: "steps list is required",
		},
		{
			name: "empty step",
			yaml: "name: x\ngraph_source: g\nsteps:\n  - {}\n",
			want: "steps[0]: exactly one step kind must be set",
		},
		{
			name: "two kinds in one step",
			yaml: "name: x\ngraph_source: g\nsteps:\n  - listen: a\n    emit: a\n",
			want: "steps[0]: exactly one step kind must be set",
		},
		{
			name: "send without input",
			yaml: "name: x\ngraph_source: g\nsteps:\n  - send: {value: 1}\n",
			want: "steps[0].send: input is required",
		},
		{
			name: "send without value",
			yaml: "name: x\ngraph_source: g\nsteps:\n  - send: {input: a}\n",
			want: "steps[0].send: value is required",
		},
		{
			name: "expectation without signal",
			yaml: "name: x\ngraph_source: g\nsteps:\n  - listen: a\nexpect:\n  - values: []\n",
			want: "expect[0]: signal is required",
		},
		{
			name: "expectation without values",
			yaml: "name: x\ngraph_source: g\nsteps:\n  - listen: a\nexpect:\n  - signal: a\n",
			want: "expect[0]: values is required",
		},
		{
			name: "expectation on unlistened signal",
			yaml: "name: x\ngraph_source: g\nsteps:\n  - listen: a\nexpect:\n  - signal: b\n    values: []\n",
			want: `expect[0]: signal "b" is never listened to`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestStep_Kind(t *testing.T) {
	assert.Equal(t, StepListen, Step{Listen: "a"}.Kind())
	assert.Equal(t, StepShutdown, Step{Shutdown: &struct{}{}}.Kind())
	assert.Equal(t, "", Step{}.Kind())
	assert.Equal(t, "", Step{Listen: "a", Start: &struct{}{}}.Kind())
}
