package ir

import (
	"fmt"
	"sync/atomic"
)

// InputRef identifies an external input slot.
// Refs come from a process-wide monotonic counter and are never reused.
// The zero InputRef is invalid.
type InputRef struct {
	id uint64
}

var inputIDs atomic.Uint64

// NewInputRef allocates a fresh, globally unique input identifier.
// Safe for concurrent use.
func NewInputRef() InputRef {
	return InputRef{id: inputIDs.Add(1)}
}

// ID returns the numeric identifier.
func (r InputRef) ID() uint64 { return r.id }

// IsZero reports whether r was never allocated.
func (r InputRef) IsZero() bool { return r.id == 0 }

func (r InputRef) String() string { return fmt.Sprintf("input#%d", r.id) }

// Kind distinguishes leaf and derived nodes.
type Kind uint8

const (
	// KindInput is a leaf fed by an external emitter.
	KindInput Kind = iota + 1
	// KindCombine is an operator applied to two operand nodes.
	KindCombine
)

// Node is an immutable signal descriptor: either Input(ref) or
// Combine(op, left, right). Operands are shared pointers, so independent
// expressions may reference the same sub-node.
//
// The digest is computed once at construction; equality and interning never
// rehash. Nodes must be built through NewInput and Combine.
type Node struct {
	kind   Kind
	typ    Type
	input  InputRef
	op     Op
	left   *Node
	right  *Node
	digest Digest
}

// NewInput builds a leaf node for ref producing values of type t.
// Panics if ref is zero or t is unknown; both are programming errors.
func NewInput(ref InputRef, t Type) *Node {
	if ref.IsZero() {
		panic("ir.NewInput: zero InputRef")
	}
	if !t.Valid() {
		panic(fmt.Sprintf("ir.NewInput: unknown type %s", t))
	}
	return &Node{
		kind:   KindInput,
		typ:    t,
		input:  ref,
		digest: inputDigest(ref, t),
	}
}

// Combine builds a derived node. The result type is op's declared output
// type for the operand types; mismatched operands are rejected.
func Combine(op Op, left, right *Node) (*Node, error) {
	if left == nil || right == nil {
		return nil, fmt.Errorf("%s: nil operand", op)
	}
	t, err := op.ResultType(left.typ, right.typ)
	if err != nil {
		return nil, err
	}
	return &Node{
		kind:   KindCombine,
		typ:    t,
		op:     op,
		left:   left,
		right:  right,
		digest: combineDigest(op, t, left.digest, right.digest),
	}, nil
}

// MustCombine is like Combine but panics on error.
// Use only when operand types are known to match.
func MustCombine(op Op, left, right *Node) *Node {
	n, err := Combine(op, left, right)
	if err != nil {
		panic(err)
	}
	return n
}

// Kind returns the node kind.
func (n *Node) Kind() Kind { return n.kind }

// Type returns the value type the node produces.
func (n *Node) Type() Type { return n.typ }

// Digest returns the precomputed structural hash.
func (n *Node) Digest() Digest { return n.digest }

// Input returns the leaf's InputRef. ok is false for derived nodes.
func (n *Node) Input() (ref InputRef, ok bool) {
	return n.input, n.kind == KindInput
}

// Op returns the operator of a derived node (zero for leaves).
func (n *Node) Op() Op { return n.op }

// Operands returns the left and right operands of a derived node (nil for leaves).
func (n *Node) Operands() (left, right *Node) { return n.left, n.right }

// Equal reports structural identity: hash first, structure second.
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if n == nil || other == nil || n.digest != other.digest {
		return false
	}
	if n.kind != other.kind || n.typ != other.typ {
		return false
	}
	if n.kind == KindInput {
		return n.input == other.input
	}
	return n.op == other.op && n.left.Equal(other.left) && n.right.Equal(other.right)
}

// String renders the expression, e.g. "add(input#1:u64, input#2:u64)".
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.kind == KindInput {
		return fmt.Sprintf("%s:%s", n.input, n.typ)
	}
	return fmt.Sprintf("%s(%s, %s)", n.op, n.left, n.right)
}
