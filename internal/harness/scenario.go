package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is one scripted engine session.
type Scenario struct {
	// Name uniquely identifies this scenario. Used for golden file names.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Graph is the path of the CUE graph file or directory.
	// Relative paths are resolved against the scenario file.
	Graph string `yaml:"graph,omitempty"`

	// GraphSource is an inline CUE graph, used instead of Graph.
	GraphSource string `yaml:"graph_source,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Expect lists the exact value sequence each listed signal must observe.
	Expect []Expectation `yaml:"expect"`
}

// Step is one engine operation. Exactly one field is set.
type Step struct {
	Listen        string    `yaml:"listen,omitempty"`
	Emit          string    `yaml:"emit,omitempty"`
	Send          *SendStep `yaml:"send,omitempty"`
	CloseEmitter  string    `yaml:"close_emitter,omitempty"`
	CloseListener string    `yaml:"close_listener,omitempty"`
	Start         *struct{} `yaml:"start,omitempty"`
	Shutdown      *struct{} `yaml:"shutdown,omitempty"`
}

// SendStep pushes one value through the latest emitter for Input.
type SendStep struct {
	Input string `yaml:"input"`
	Value any    `yaml:"value"`

	// ExpectClosed asserts the send fails because the engine released
	// the endpoint.
	ExpectClosed bool `yaml:"expect_closed,omitempty"`
}

// Expectation is the exact sequence of values a signal must observe.
type Expectation struct {
	Signal string `yaml:"signal"`
	Values []any  `yaml:"values"`
}

// Step kinds, as written in YAML.
const (
	StepListen        = "listen"
	StepEmit          = "emit"
	StepSend          = "send"
	StepCloseEmitter  = "close_emitter"
	StepCloseListener = "close_listener"
	StepStart         = "start"
	StepShutdown      = "shutdown"
)

// Kind returns the step kind, or "" if no field or several fields are set.
func (s Step) Kind() string {
	var kinds []string
	if s.Listen != "" {
		kinds = append(kinds, StepListen)
	}
	if s.Emit != "" {
		kinds = append(kinds, StepEmit)
	}
	if s.Send != nil {
		kinds = append(kinds, StepSend)
	}
	if s.CloseEmitter != "" {
		kinds = append(kinds, StepCloseEmitter)
	}
	if s.CloseListener != "" {
		kinds = append(kinds, StepCloseListener)
	}
	if s.Start != nil {
		kinds = append(kinds, StepStart)
	}
	if s.Shutdown != nil {
		kinds = append(kinds, StepShutdown)
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Graph != "" && !filepath.IsAbs(scenario.Graph) {
		scenario.Graph = filepath.Join(filepath.Dir(path), scenario.Graph)
	}
	if scenario.Graph != "" {
		if _, err := os.Stat(scenario.Graph); err != nil {
			return nil, fmt.Errorf("invalid scenario: graph not found: %s", scenario.Graph)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and well formed.
// Label checks against the graph happen at run time.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if (s.Graph == "") == (s.GraphSource == "") {
		return fmt.Errorf("exactly one of graph or graph_source is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	listened := make(map[string]bool)
	for i, step := range s.Steps {
		switch step.Kind() {
		case "":
			return fmt.Errorf("steps[%d]: exactly one step kind must be set", i)
		case StepSend:
			if step.Send.Input == "" {
				return fmt.Errorf("steps[%d].send: input is required", i)
			}
			if step.Send.Value == nil {
				return fmt.Errorf("steps[%d].send: value is required", i)
			}
		case StepListen:
			listened[step.Listen] = true
		}
	}

	for i, exp := range s.Expect {
		if exp.Signal == "" {
			return fmt.Errorf("expect[%d]: signal is required", i)
		}
		if exp.Values == nil {
			return fmt.Errorf("expect[%d]: values is required (use [] for none)", i)
		}
		if !listened[exp.Signal] {
			return fmt.Errorf("expect[%d]: signal %q is never listened to", i, exp.Signal)
		}
	}

	return nil
}
