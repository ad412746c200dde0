package store

import "github.com/roach88/rill/internal/ir"

// RunStatus is the outcome recorded for a run.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunPass    RunStatus = "pass"
	RunFail    RunStatus = "fail"
)

// Run is one scenario execution.
type Run struct {
	ID                string
	Scenario          string
	Graph             string
	EngineVersion     string
	DescriptorVersion string
	Status            RunStatus
}

// Observation is one value delivered to a listener during a run.
type Observation struct {
	RunID  string
	Seq    int64
	Signal string
	Value  ir.Value
}
