package engine

import (
	"errors"
	"log/slog"

	"github.com/roach88/rill/internal/ir"
	"github.com/roach88/rill/internal/transport"
)

type state uint8

const (
	stateNotStarted state = iota
	stateRunning
	stateTerminated
)

func (s state) String() string {
	switch s {
	case stateNotStarted:
		return "not_started"
	case stateRunning:
		return "running"
	case stateTerminated:
		return "terminated"
	}
	return "unknown"
}

// worker owns all evaluation state. Only the goroutine running run touches it.
//
// INVARIANTS:
//   - fields and listeners are index-aligned; indices are never reused
//   - emitters[i] feeds emitterField[i] and is mux operand i+1
//   - a nil emitter is a tombstone; its slot is never reused
type worker struct {
	logger  *slog.Logger
	clock   *Clock
	control *transport.Receiver[command]
	mux     *mux
	state   state

	fields    []ir.Value
	listeners []transport.Listener
	nodes     *internTable
	inputs    map[ir.InputRef]int

	emitters     []transport.Emitter
	emitterField []int

	pending []update
	applied int64
}

func newWorker(control *transport.Receiver[command], logger *slog.Logger, clock *Clock) *worker {
	return &worker{
		logger:  logger,
		clock:   clock,
		control: control,
		mux:     newMux(control.Ready()),
		nodes:   newInternTable(),
		inputs:  make(map[ir.InputRef]int),
	}
}

// run is the worker loop. It returns once the worker is Terminated and every
// adapter has been released.
func (w *worker) run() {
	w.logger.Debug("worker started")

	for w.state != stateTerminated {
		chosen := w.mux.wait()
		if chosen == 0 {
			w.serviceControl()
			continue
		}
		w.serviceEmitter(chosen - 1)
	}

	w.release()
}

func (w *worker) serviceControl() {
	cmd, err := w.control.TryRecv()
	switch {
	case err == nil:
		w.handle(cmd)
	case errors.Is(err, transport.ErrClosed):
		// Every Engine handle is gone; nobody can send Shutdown any more.
		w.logger.Debug("control channel closed, shutting down")
		w.terminate()
	}
}

func (w *worker) handle(cmd command) {
	switch c := cmd.(type) {
	case startCommand:
		w.handleStart(c)
	case shutdownCommand:
		w.terminate()
	case listenCommand:
		w.handleListen(c)
	case emitCommand:
		w.handleEmit(c)
	case statsCommand:
		c.reply.Resolve(w.stats())
	}
}

func (w *worker) handleStart(c startCommand) {
	defer c.ack.Signal()

	if w.state == stateRunning {
		w.logger.Warn("start called on running engine",
			"code", ErrCodeDuplicateStart,
			"applied", w.applied,
		)
		return
	}

	w.state = stateRunning
	drained := len(w.pending)
	for _, u := range w.pending {
		w.apply(u)
	}
	w.pending = nil

	w.logger.Info("engine started", "drained", drained, "fields", len(w.fields))
}

func (w *worker) terminate() {
	if w.state == stateNotStarted && len(w.pending) > 0 {
		w.logger.Debug("discarding pending updates", "count", len(w.pending))
	}
	w.pending = nil
	w.state = stateTerminated
}

func (w *worker) handleListen(c listenCommand) {
	defer c.ack.Signal()

	if c.listener.Type() != c.node.Type() {
		w.logger.Error("listener rejected",
			"code", ErrCodeTypeMismatch,
			"signal", c.node.String(),
			"listener_type", c.listener.Type().String(),
		)
		c.listener.Release()
		return
	}

	field := w.resolve(c.node)
	if old := w.listeners[field]; old != nil {
		old.Release()
	}
	w.listeners[field] = c.listener

	w.logger.Debug("listener attached", "field", field, "signal", c.node.String())
}

func (w *worker) handleEmit(c emitCommand) {
	defer c.ack.Signal()

	if c.emitter.Type() != c.typ {
		w.logger.Error("emitter rejected",
			"code", ErrCodeTypeMismatch,
			"input", c.input.String(),
			"emitter_type", c.emitter.Type().String(),
		)
		c.emitter.Release()
		return
	}

	field := w.resolve(ir.NewInput(c.input, c.typ))
	slot := len(w.emitters)
	w.emitters = append(w.emitters, c.emitter)
	w.emitterField = append(w.emitterField, field)
	w.mux.install(c.emitter.Ready())

	w.logger.Debug("emitter attached", "slot", slot, "field", field, "input", c.input.String(), "operands", w.mux.live)
}

func (w *worker) serviceEmitter(slot int) {
	em := w.emitters[slot]
	if em == nil {
		return
	}

	v, err := em.Receive()
	switch {
	case errors.Is(err, transport.ErrNotReady):
		return
	case errors.Is(err, transport.ErrClosed):
		w.mux.remove(slot + 1)
		w.emitters[slot] = nil
		em.Release()
		w.logger.Debug("emitter detached", "slot", slot, "field", w.emitterField[slot], "operands", w.mux.live)
		return
	}

	u := update{field: w.emitterField[slot], value: v}
	if w.state == stateNotStarted {
		w.pending = append(w.pending, u)
		return
	}
	w.apply(u)
}

// apply overwrites the field and forwards the value to its listener.
// A listener whose client went away is detached silently.
func (w *worker) apply(u update) {
	seq := w.clock.Next()
	w.fields[u.field] = u.value
	w.applied++

	l := w.listeners[u.field]
	if l == nil {
		return
	}
	if err := l.Accept(u.value); err != nil {
		w.listeners[u.field] = nil
		l.Release()
		w.logger.Debug("listener detached", "field", u.field, "seq", seq)
	}
}

// resolve returns the field index for n, allocating fields for n and any
// operands seen for the first time.
//
// A derived field is computed once, here, from the operand values current
// at first reference.
func (w *worker) resolve(n *ir.Node) int {
	if field, ok := w.nodes.lookup(n); ok {
		return field
	}

	var v ir.Value
	switch n.Kind() {
	case ir.KindInput:
		v = ir.Zero(n.Type())
	case ir.KindCombine:
		left, right := n.Operands()
		li := w.resolve(left)
		ri := w.resolve(right)
		out, err := ir.Apply(n.Op(), w.fields[li], w.fields[ri])
		if err != nil {
			w.logger.Error("operator failed",
				"code", ErrCodeOperatorFailed,
				"signal", n.String(),
				"error", err,
			)
			out = ir.Zero(n.Type())
		}
		v = out
	}

	field := len(w.fields)
	w.fields = append(w.fields, v)
	w.listeners = append(w.listeners, nil)
	w.nodes.insert(n, field)
	if ref, ok := n.Input(); ok {
		w.inputs[ref] = field
	}
	return field
}

// release closes the control pipe, settles commands that raced with
// termination, and releases every adapter so no client blocks forever.
func (w *worker) release() {
	for _, cmd := range w.control.CloseDrain() {
		w.discard(cmd)
	}
	for i, em := range w.emitters {
		if em != nil {
			w.mux.remove(i + 1)
			em.Release()
			w.emitters[i] = nil
		}
	}
	for i, l := range w.listeners {
		if l != nil {
			l.Release()
			w.listeners[i] = nil
		}
	}

	w.logger.Info("engine stopped", "fields", len(w.fields), "applied", w.applied)
}

func (w *worker) discard(cmd command) {
	switch c := cmd.(type) {
	case startCommand:
		c.ack.Signal()
	case listenCommand:
		c.listener.Release()
		c.ack.Signal()
	case emitCommand:
		c.emitter.Release()
		c.ack.Signal()
	case statsCommand:
		c.reply.Resolve(w.stats())
	}
}

func (w *worker) stats() Stats {
	s := Stats{
		State:   w.state.String(),
		Fields:  len(w.fields),
		Inputs:  len(w.inputs),
		Pending: len(w.pending),
		Applied: w.applied,
		Seq:     w.clock.Current(),
	}
	for _, em := range w.emitters {
		if em != nil {
			s.Emitters++
		}
	}
	for _, l := range w.listeners {
		if l != nil {
			s.Listeners++
		}
	}
	return s
}
