package harness

import (
	"fmt"

	"github.com/roach88/rill/internal/ir"
)

// Observation is one value a listener received.
type Observation struct {
	// Signal is the graph label the listener was attached to.
	Signal string `json:"signal"`

	// Value is the delivered value.
	Value ir.Value `json:"value"`

	// Seq numbers observations within a run: listen order, then delivery order.
	Seq int64 `json:"seq"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// RunID identifies the run in the journal.
	RunID string `json:"run_id"`

	// Pass is true if every expectation matched.
	Pass bool `json:"pass"`

	// Observations lists every collected value.
	Observations []Observation `json:"observations"`

	// Errors contains expectation mismatches. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(runID string) *Result {
	return &Result{
		RunID:        runID,
		Pass:         true,
		Observations: []Observation{},
		Errors:       []string{},
	}
}

// AddError records a mismatch and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Values returns the values observed for signal, in delivery order.
func (r *Result) Values(signal string) []ir.Value {
	var out []ir.Value
	for _, obs := range r.Observations {
		if obs.Signal == signal {
			out = append(out, obs.Value)
		}
	}
	return out
}
