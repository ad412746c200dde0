package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/rill/internal/compiler"
	"github.com/roach88/rill/internal/engine"
	"github.com/roach88/rill/internal/ir"
	"github.com/roach88/rill/internal/store"
	"github.com/roach88/rill/internal/transport"
)

const (
	// DefaultTimeout bounds each wait for an expected value.
	DefaultTimeout = 2 * time.Second

	// DefaultSettle is how long the harness keeps listening after the
	// expected values arrived, to catch duplicates.
	DefaultSettle = 20 * time.Millisecond
)

// Option configures a harness run.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	timeout time.Duration
	settle  time.Duration
	journal *store.Store
	runIDs  RunIDGenerator
}

// WithLogger sets the logger for the harness and its engine.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithTimeout bounds each wait for an expected value.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithSettle sets how long to listen for extra values.
func WithSettle(d time.Duration) Option {
	return func(c *config) { c.settle = d }
}

// WithJournal records the run and its observations in s.
func WithJournal(s *store.Store) Option {
	return func(c *config) { c.journal = s }
}

// WithRunIDs sets the run ID generator. Default: UUIDv7Generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(c *config) { c.runIDs = g }
}

// listened tracks every receiver ever attached for one label, oldest first.
// Replaced receivers are closed by the engine and drained at collection.
type listened struct {
	label     string
	receivers []receiver
	closed    bool
}

// session is the state of one scenario run.
type session struct {
	cfg      config
	scenario *Scenario
	graph    *compiler.Graph
	engine   *engine.Engine
	runID    string
	stopped  bool

	listens  []*listened
	byLabel  map[string]*listened
	emitters map[string][]sender
	observed map[string][]ir.Value
}

// Run executes a scenario against a fresh engine and returns the result.
//
// Execution flow:
//  1. Compile the graph
//  2. Record the run in the journal (if configured)
//  3. Execute steps in order, waiting for each registration ack
//  4. Collect observations and check expectations
//  5. Shut the engine down and record the outcome
//
// Mismatched expectations are reported in Result.Errors. A returned error
// means the scenario could not be executed at all.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := config{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
		settle:  DefaultSettle,
		runIDs:  UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	graph, err := loadGraph(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult(cfg.runIDs.Generate())
	logger := cfg.logger.With("scenario", scenario.Name, "run_id", result.RunID)
	cfg.logger = logger

	if cfg.journal != nil {
		if err := cfg.journal.WriteRun(ctx, store.Run{
			ID:                result.RunID,
			Scenario:          scenario.Name,
			Graph:             graphName(scenario),
			EngineVersion:     ir.EngineVersion,
			DescriptorVersion: ir.DescriptorVersion,
		}); err != nil {
			return nil, err
		}
	}

	s := &session{
		cfg:      cfg,
		scenario: scenario,
		graph:    graph,
		engine:   engine.New(engine.WithLogger(logger)),
		runID:    result.RunID,
		byLabel:  make(map[string]*listened),
		emitters: make(map[string][]sender),
		observed: make(map[string][]ir.Value),
	}
	defer s.stop()

	logger.Debug("scenario starting", "steps", len(scenario.Steps))

	if err := s.execute(ctx); err != nil {
		s.complete(ctx, false)
		return nil, err
	}

	s.collect(ctx)
	s.record(result)
	s.check(result)

	if cfg.journal != nil {
		for _, obs := range result.Observations {
			if err := cfg.journal.WriteObservation(ctx, store.Observation{
				RunID:  result.RunID,
				Seq:    obs.Seq,
				Signal: obs.Signal,
				Value:  obs.Value,
			}); err != nil {
				return nil, err
			}
		}
	}
	if err := s.complete(ctx, result.Pass); err != nil {
		return nil, err
	}

	logger.Info("scenario finished", "pass", result.Pass, "observations", len(result.Observations))
	return result, nil
}

func loadGraph(scenario *Scenario) (*compiler.Graph, error) {
	if scenario.GraphSource != "" {
		v := cuecontext.New().CompileString(scenario.GraphSource)
		g, err := compiler.CompileGraph(v)
		if err != nil {
			return nil, fmt.Errorf("compile graph_source: %w", err)
		}
		return g, nil
	}
	g, err := compiler.LoadGraph(scenario.Graph)
	if err != nil {
		return nil, fmt.Errorf("compile graph: %w", err)
	}
	return g, nil
}

func graphName(scenario *Scenario) string {
	if scenario.Graph != "" {
		return scenario.Graph
	}
	return "<inline>"
}

func (s *session) complete(ctx context.Context, pass bool) error {
	if s.cfg.journal == nil {
		return nil
	}
	return s.cfg.journal.CompleteRun(ctx, s.runID, pass)
}

func (s *session) execute(ctx context.Context) error {
	for i, step := range s.scenario.Steps {
		if err := s.do(ctx, step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Kind(), err)
		}
	}
	return nil
}

func (s *session) do(ctx context.Context, step Step) error {
	switch step.Kind() {
	case StepListen:
		return s.listen(ctx, step.Listen)
	case StepEmit:
		return s.emit(ctx, step.Emit)
	case StepSend:
		return s.send(step.Send)
	case StepCloseEmitter:
		senders, ok := s.emitters[step.CloseEmitter]
		if !ok {
			return fmt.Errorf("no emitter for %q", step.CloseEmitter)
		}
		for _, tx := range senders {
			tx.close()
		}
		delete(s.emitters, step.CloseEmitter)
		return nil
	case StepCloseListener:
		l, ok := s.byLabel[step.CloseListener]
		if !ok || l.closed {
			return fmt.Errorf("no listener for %q", step.CloseListener)
		}
		l.receivers[len(l.receivers)-1].close()
		l.closed = true
		return nil
	case StepStart:
		p, err := s.engine.Start()
		if err != nil {
			return err
		}
		_, err = p.WaitContext(ctx)
		return err
	case StepShutdown:
		s.stop()
		return nil
	}
	return fmt.Errorf("invalid step")
}

func (s *session) listen(ctx context.Context, label string) error {
	n, ok := s.graph.Node(label)
	if !ok {
		return fmt.Errorf("unknown signal %q", label)
	}
	rx, err := listenNode(ctx, s.engine, n)
	if err != nil {
		return err
	}

	l, ok := s.byLabel[label]
	if !ok {
		l = &listened{label: label}
		s.byLabel[label] = l
		s.listens = append(s.listens, l)
	}
	l.receivers = append(l.receivers, rx)
	l.closed = false
	return nil
}

func (s *session) emit(ctx context.Context, label string) error {
	ref, ok := s.graph.Input(label)
	if !ok {
		return fmt.Errorf("unknown input %q", label)
	}
	n, _ := s.graph.Node(label)
	tx, err := emitInput(ctx, s.engine, ref, n.Type())
	if err != nil {
		return err
	}
	s.emitters[label] = append(s.emitters[label], tx)
	return nil
}

// send uses the most recently attached emitter for the input.
func (s *session) send(step *SendStep) error {
	senders := s.emitters[step.Input]
	if len(senders) == 0 {
		return fmt.Errorf("no emitter for %q", step.Input)
	}
	n, _ := s.graph.Node(step.Input)
	v, err := ir.FromNative(n.Type(), step.Value)
	if err != nil {
		return fmt.Errorf("value for %q: %w", step.Input, err)
	}

	err = senders[len(senders)-1].send(v)
	switch {
	case step.ExpectClosed && errors.Is(err, transport.ErrClosed):
		return nil
	case step.ExpectClosed && err == nil:
		return fmt.Errorf("send to %q succeeded, expected closed endpoint", step.Input)
	}
	return err
}

// stop shuts the engine down once and waits for the worker to exit.
func (s *session) stop() {
	if s.stopped {
		return
	}
	s.stopped = true

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.timeout)
	defer cancel()
	if err := s.engine.Shutdown().WaitContext(ctx); err != nil {
		s.cfg.logger.Warn("engine did not stop", "error", err)
	}
}
