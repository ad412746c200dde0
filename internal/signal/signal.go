// Package signal provides the typed, client-facing signal builders.
//
// Building a signal never contacts an engine: Input, Add and Mul only
// allocate immutable ir.Node descriptors. Handles built independently (even
// on different goroutines) from the same structure are Equal and resolve to
// one field inside the engine.
package signal

import (
	"fmt"

	"github.com/roach88/rill/internal/ir"
)

// Signal is a typed handle to a signal descriptor.
// It is a small value type; copy it freely.
type Signal[T ir.Primitive] struct {
	node *ir.Node
}

// Addable is the set of types OpAdd is defined over.
type Addable interface {
	uint64 | int64 | string
}

// Numeric is the set of types OpMul is defined over.
type Numeric interface {
	uint64 | int64
}

// Input allocates a fresh input identifier and a leaf signal reading from it.
func Input[T ir.Primitive]() (ir.InputRef, Signal[T]) {
	ref := ir.NewInputRef()
	return ref, Of[T](ref)
}

// Of returns the leaf signal for an existing input.
func Of[T ir.Primitive](ref ir.InputRef) Signal[T] {
	return Signal[T]{node: ir.NewInput(ref, ir.TypeOf[T]())}
}

// Add builds left + right (string concatenation for strings).
func Add[T Addable](left, right Signal[T]) Signal[T] {
	return Signal[T]{node: ir.MustCombine(ir.OpAdd, left.node, right.node)}
}

// Mul builds left * right.
func Mul[T Numeric](left, right Signal[T]) Signal[T] {
	return Signal[T]{node: ir.MustCombine(ir.OpMul, left.node, right.node)}
}

// FromNode wraps an untyped descriptor, checking that it produces T.
// Used when graphs are loaded from files rather than built in Go.
func FromNode[T ir.Primitive](n *ir.Node) (Signal[T], error) {
	if n == nil {
		return Signal[T]{}, fmt.Errorf("signal: nil node")
	}
	if want := ir.TypeOf[T](); n.Type() != want {
		return Signal[T]{}, fmt.Errorf("signal: node %s produces %s, not %s", n, n.Type(), want)
	}
	return Signal[T]{node: n}, nil
}

// Node returns the underlying descriptor (nil for the zero Signal).
func (s Signal[T]) Node() *ir.Node { return s.node }

// Valid reports whether s was built by this package.
func (s Signal[T]) Valid() bool { return s.node != nil }

// Equal reports structural identity.
func (s Signal[T]) Equal(other Signal[T]) bool { return s.node.Equal(other.node) }

func (s Signal[T]) String() string { return s.node.String() }
