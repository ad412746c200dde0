package engine

import (
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"github.com/roach88/rill/internal/ir"
	"github.com/roach88/rill/internal/signal"
	"github.com/roach88/rill/internal/transport"
	"github.com/roach88/rill/internal/waiting"
)

// Engine is the client handle to one worker goroutine.
//
// Thread-safety model:
//   - every method is safe from any goroutine
//   - methods only enqueue commands; the worker applies them in arrival order
//   - after Shutdown every method returns ErrEngineShutdown
//
// An Engine that becomes unreachable without Shutdown closes its control
// pipe from a cleanup, which the worker treats as an implicit shutdown.
type Engine struct {
	control *transport.Sender[command]
	join    *waiting.Join
	logger  *slog.Logger
	clock   *Clock

	cleanup      runtime.Cleanup
	shutdownOnce sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine and its worker.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock sets the logical clock that stamps applied updates.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// Stats is a snapshot of the worker's tables.
type Stats struct {
	State     string `json:"state"`
	Fields    int    `json:"fields"`
	Inputs    int    `json:"inputs"`
	Emitters  int    `json:"emitters"`  // attached and not yet closed
	Listeners int    `json:"listeners"` // attached and not yet detached
	Pending   int    `json:"pending"`   // buffered before Start
	Applied   int64  `json:"applied"`
	Seq       int64  `json:"seq"`
}

// New creates an Engine and spawns its worker. The worker starts in the
// NotStarted state: registrations are accepted but values are buffered
// until Start.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: slog.Default(),
		clock:  NewClock(),
	}
	for _, opt := range opts {
		opt(e)
	}

	tx, rx := transport.NewPipe[command]()
	done := make(chan struct{})
	w := newWorker(rx, e.logger, e.clock)
	go func() {
		defer close(done)
		w.run()
	}()

	e.control = tx
	e.join = waiting.NewJoin(done)
	e.cleanup = runtime.AddCleanup(e, func(tx *transport.Sender[command]) {
		tx.Close()
	}, tx)

	e.logger.Debug("engine created")
	return e
}

// Start moves the engine to Running. The returned Pending completes once
// every value buffered before Start has been applied and delivered.
// Starting a running engine is harmless: it is acknowledged and logged.
func (e *Engine) Start() (*waiting.Pending[struct{}], error) {
	p, ack := waiting.NewPending(struct{}{})
	if err := e.submit(startCommand{ack: ack}); err != nil {
		return nil, err
	}
	return p, nil
}

// Shutdown stops the worker and returns a Join for its exit. Buffered
// values are discarded if the engine never started. Idempotent: later calls
// return a Join for the same exit.
func (e *Engine) Shutdown() *waiting.Join {
	e.shutdownOnce.Do(func() {
		e.cleanup.Stop()
		if err := e.control.Send(shutdownCommand{}); err != nil {
			e.logger.Debug("shutdown after worker exit")
		}
		e.control.Close()
	})
	return e.join
}

// Done is closed when the worker has exited.
func (e *Engine) Done() <-chan struct{} {
	return e.join.Done()
}

// Stats asks the worker for a snapshot of its tables.
func (e *Engine) Stats() (*waiting.Pending[Stats], error) {
	p, r := waiting.NewDeferred[Stats]()
	if err := e.submit(statsCommand{reply: r}); err != nil {
		return nil, err
	}
	return p, nil
}

func (e *Engine) submit(cmd command) error {
	if err := e.control.Send(cmd); err != nil {
		if errors.Is(err, transport.ErrClosed) {
			return ErrEngineShutdown
		}
		return err
	}
	return nil
}

// Listen attaches a new listener to sig and returns its receive endpoint
// immediately, bundled in a Pending that completes once the worker has
// attached it. Any listener previously attached to the same signal is
// replaced and its endpoint closed.
func Listen[T ir.Primitive](e *Engine, sig signal.Signal[T]) (*waiting.Pending[*transport.Receiver[T]], error) {
	if !sig.Valid() {
		return nil, &Error{Code: ErrCodeInvalidSignal, Message: "listen on zero signal"}
	}

	tx, rx := transport.NewPipe[T]()
	p, ack := waiting.NewPending(rx)
	cmd := listenCommand{
		node:     sig.Node(),
		listener: transport.NewListener(tx),
		ack:      ack,
	}
	if err := e.submit(cmd); err != nil {
		return nil, err
	}
	return p, nil
}

// Emit attaches a new producer for input and returns its send endpoint
// immediately, bundled in a Pending that completes once the worker is
// reading from it. Several emitters may feed the same input.
func Emit[T ir.Primitive](e *Engine, input ir.InputRef) (*waiting.Pending[*transport.Sender[T]], error) {
	if input.IsZero() {
		return nil, &Error{Code: ErrCodeInvalidSignal, Message: "emit on zero input"}
	}

	tx, rx := transport.NewPipe[T]()
	p, ack := waiting.NewPending(tx)
	cmd := emitCommand{
		input:   input,
		typ:     ir.TypeOf[T](),
		emitter: transport.NewEmitter(rx),
		ack:     ack,
	}
	if err := e.submit(cmd); err != nil {
		return nil, err
	}
	return p, nil
}
