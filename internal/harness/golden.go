package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rill/internal/ir"
)

// TraceSnapshot is the golden form of a scenario result.
// Observations are grouped per signal so the snapshot does not depend on
// how deliveries to different signals interleaved.
type TraceSnapshot struct {
	ScenarioName string
	Pass         bool
	Signals      []string
	Values       map[string][]ir.Value
	Errors       []string
}

// NewTraceSnapshot builds the snapshot of result for every signal the
// scenario listens to, including ones that observed nothing.
func NewTraceSnapshot(scenario *Scenario, result *Result) *TraceSnapshot {
	snap := &TraceSnapshot{
		ScenarioName: scenario.Name,
		Pass:         result.Pass,
		Values:       make(map[string][]ir.Value),
		Errors:       result.Errors,
	}
	for _, step := range scenario.Steps {
		if step.Listen == "" {
			continue
		}
		if _, seen := snap.Values[step.Listen]; seen {
			continue
		}
		snap.Signals = append(snap.Signals, step.Listen)
		snap.Values[step.Listen] = result.Values(step.Listen)
	}
	return snap
}

// toCanonicalMap converts the snapshot for ir.MarshalCanonical, which only
// handles primitives, Values, slices and string-keyed maps.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	signals := make(map[string]any, len(s.Signals))
	for _, label := range s.Signals {
		vals := make([]any, len(s.Values[label]))
		for i, v := range s.Values[label] {
			vals[i] = v
		}
		signals[label] = vals
	}

	out := map[string]any{
		"scenario": s.ScenarioName,
		"pass":     s.Pass,
		"signals":  signals,
	}
	if len(s.Errors) > 0 {
		errs := make([]any, len(s.Errors))
		for i, e := range s.Errors {
			errs[i] = e
		}
		out["errors"] = errs
	}
	return out
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against the scenario's golden file.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := NewTraceSnapshot(scenario, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
