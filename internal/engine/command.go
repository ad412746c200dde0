package engine

import (
	"github.com/roach88/rill/internal/ir"
	"github.com/roach88/rill/internal/transport"
	"github.com/roach88/rill/internal/waiting"
)

// command is a control message for the worker.
// Only the types in this file implement it.
type command interface {
	command()
}

// startCommand moves the worker to Running. ack fires after pending
// updates have been applied.
type startCommand struct {
	ack waiting.Ack
}

// shutdownCommand terminates the worker. Callers wait on the Join instead
// of an ack.
type shutdownCommand struct{}

// listenCommand attaches listener to the field for node, replacing any
// listener already there.
type listenCommand struct {
	node     *ir.Node
	listener transport.Listener
	ack      waiting.Ack
}

// emitCommand attaches emitter as a producer for the input leaf (input, typ).
type emitCommand struct {
	input   ir.InputRef
	typ     ir.Type
	emitter transport.Emitter
	ack     waiting.Ack
}

// statsCommand asks the worker for a snapshot of its tables.
type statsCommand struct {
	reply waiting.Resolver[Stats]
}

func (startCommand) command()    {}
func (shutdownCommand) command() {}
func (listenCommand) command()   {}
func (emitCommand) command()     {}
func (statsCommand) command()    {}

// update is one value read from an emitter, addressed to a field.
type update struct {
	field int
	value ir.Value
}
