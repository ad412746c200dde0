package store

import (
	"context"
	"fmt"
)

// WriteRun inserts a run record with status "running".
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, graph, engine_version, descriptor_version, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Scenario,
		run.Graph,
		run.EngineVersion,
		run.DescriptorVersion,
		string(RunRunning),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// CompleteRun records the final status of a run.
func (s *Store) CompleteRun(ctx context.Context, runID string, pass bool) error {
	status := RunFail
	if pass {
		status = RunPass
	}
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET status = ? WHERE id = ?`, string(status), runID)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("complete run: %w", ErrRunNotFound)
	}
	return nil
}

// WriteObservation appends one observation.
// Uses ON CONFLICT DO NOTHING: rewriting the same (run_id, seq) is a no-op.
// The run must exist (foreign key constraint).
func (s *Store) WriteObservation(ctx context.Context, obs Observation) error {
	valueJSON, err := marshalValue(obs.Value)
	if err != nil {
		return fmt.Errorf("write observation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO observations (run_id, seq, signal, value_type, value)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		obs.RunID,
		obs.Seq,
		obs.Signal,
		obs.Value.Type().String(),
		valueJSON,
	)
	if err != nil {
		return fmt.Errorf("write observation: %w", err)
	}
	return nil
}
