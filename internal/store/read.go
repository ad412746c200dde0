package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// ReadRun returns the run with the given ID, or ErrRunNotFound.
func (s *Store) ReadRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, scenario, graph, engine_version, descriptor_version, status
		FROM runs
		WHERE id = ?
	`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns every run ordered by ID. Time-ordered IDs (UUIDv7) make
// this chronological.
//
// Returns an empty slice (not nil) if the journal is empty.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scenario, graph, engine_version, descriptor_version, status
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadObservations returns a run's observations ordered by seq ASC.
//
// Returns an empty slice (not nil) if none were recorded.
func (s *Store) ReadObservations(ctx context.Context, runID string) ([]Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, signal, value_type, value
		FROM observations
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	observations := []Observation{}
	for rows.Next() {
		var obs Observation
		var typeName, valueJSON string
		if err := rows.Scan(&obs.RunID, &obs.Seq, &obs.Signal, &typeName, &valueJSON); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		obs.Value, err = unmarshalValue(typeName, valueJSON)
		if err != nil {
			return nil, fmt.Errorf("observation %s/%d: %w", obs.RunID, obs.Seq, err)
		}
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}
	return observations, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var status string
	if err := row.Scan(&run.ID, &run.Scenario, &run.Graph, &run.EngineVersion, &run.DescriptorVersion, &status); err != nil {
		return Run{}, err
	}
	run.Status = RunStatus(status)
	return run, nil
}
