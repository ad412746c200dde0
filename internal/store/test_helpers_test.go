package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// createTestStore creates a fresh store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun writes a run with minimal fields and returns it.
func createTestRun(t *testing.T, s *Store, id string) Run {
	t.Helper()
	run := Run{
		ID:                id,
		Scenario:          "scenario-" + id,
		Graph:             "graph.cue",
		EngineVersion:     "0.1.0",
		DescriptorVersion: "1",
	}
	require.NoError(t, s.WriteRun(context.Background(), run))
	return run
}
